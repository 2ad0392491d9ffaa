package sync

import "fmt"

// ErrorInfo captures why a remote mirror write or read was skipped or failed,
// so callers and tests can assert sync state without scraping logs.
type ErrorInfo struct {
	Message string `json:"message"`
}

// NewErrorInfo normalizes any failure value into an ErrorInfo.
func NewErrorInfo(v any) *ErrorInfo {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return &ErrorInfo{Message: err.Error()}
	}
	return &ErrorInfo{Message: fmt.Sprint(v)}
}

// Outcome is the result of every dual-write operation: the locally committed
// value plus whether the remote mirror accepted it. The operation as a whole
// fails only when the local write failed, in which case no Outcome exists.
type Outcome[T any] struct {
	Local        T          `json:"local"`
	RemoteSynced bool       `json:"remoteSynced"`
	RemoteErr    *ErrorInfo `json:"remoteError,omitempty"`
}

// Synced wraps a local value whose mirror write succeeded.
func Synced[T any](local T) Outcome[T] {
	return Outcome[T]{Local: local, RemoteSynced: true}
}

// LocalOnly wraps a local value written while the mirror is disabled or the
// identity gate skipped the remote write. Not an error condition.
func LocalOnly[T any](local T) Outcome[T] {
	return Outcome[T]{Local: local}
}

// Unsynced wraps a local value whose mirror write failed.
func Unsynced[T any](local T, cause any) Outcome[T] {
	return Outcome[T]{Local: local, RemoteErr: NewErrorInfo(cause)}
}
