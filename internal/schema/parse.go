package schema

import (
	"context"

	"github.com/mentorhub/mentorhub-backend/pkg/logger"
)

// ParseJSON is the single choke point for persisted JSON: decode failures log
// at error level, shape rejections log at warn level, and both return the
// fallback. Only values that pass the decoder are trusted.
func ParseJSON[T any](ctx context.Context, logg *logger.Logger, raw string, decode func([]byte) (T, error), fallback T) T {
	value, err := decode([]byte(raw))
	if err != nil {
		if IsFieldError(err) {
			logg.Warn(logg.WithField(ctx, "reason", err.Error()), "rejecting persisted value")
		} else {
			logg.Error(ctx, "failed to decode persisted value", err)
		}
		return fallback
	}
	return value
}

// ParseJSONList decodes a JSON array element-by-element, dropping entries
// that fail the decoder instead of discarding the whole collection.
func ParseJSONList[T any](ctx context.Context, logg *logger.Logger, raw string, decode func([]byte) (T, error)) []T {
	elements := splitJSONArray(ctx, logg, raw)
	if elements == nil {
		return nil
	}
	out := make([]T, 0, len(elements))
	for _, element := range elements {
		value, err := decode(element)
		if err != nil {
			if IsFieldError(err) {
				logg.Warn(logg.WithField(ctx, "reason", err.Error()), "dropping persisted list entry")
			} else {
				logg.Error(ctx, "failed to decode persisted list entry", err)
			}
			continue
		}
		out = append(out, value)
	}
	return out
}
