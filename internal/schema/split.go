package schema

import (
	"context"
	"encoding/json"

	"github.com/mentorhub/mentorhub-backend/pkg/logger"
)

// splitJSONArray breaks a JSON array into its raw elements without decoding
// them, so a single malformed entry cannot poison the rest.
func splitJSONArray(ctx context.Context, logg *logger.Logger, raw string) []json.RawMessage {
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		logg.Error(ctx, "failed to decode persisted array", err)
		return nil
	}
	return elements
}
