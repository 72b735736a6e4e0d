package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAmbiguous        = errors.New("ambiguous")
)

// Machine-readable error codes carried by RPC responses.
const (
	CodeNotFound         = "not_found"
	CodeInvalidInput     = "invalid_input"
	CodeStoreUnavailable = "store_unavailable"
	CodeAmbiguous        = "ambiguous"
	CodeInternal         = "internal"
)

// ErrorCode classifies err into one of the codes above.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	case errors.Is(err, ErrAmbiguous):
		return CodeAmbiguous
	default:
		return CodeInternal
	}
}
