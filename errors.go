package registry

import "fmt"

// ErrorKind classifies why an operation was rejected. The HTTP boundary
// maps a kind to a status code without ever string-matching on Msg.
type ErrorKind string

const (
	KindMalformedInput         ErrorKind = "malformed_input"
	KindUnknownKey             ErrorKind = "unknown_key"
	KindSelfTrust              ErrorKind = "self_trust"
	KindZeroAmount             ErrorKind = "zero_amount"
	KindNoLine                 ErrorKind = "no_line"
	KindInsufficientCredit     ErrorKind = "insufficient_credit"
	KindMissingSenderSignature ErrorKind = "missing_sender_signature"
	KindInvalidSignature       ErrorKind = "invalid_signature"
	KindIOError                ErrorKind = "io_error"
	KindCorruption             ErrorKind = "corruption"
)

// CoreError is a typed error carrying an ErrorKind alongside its message.
type CoreError struct {
	Kind ErrorKind
	Msg  string

	// PeerIdx is set when Kind == KindMissingSenderSignature.
	PeerIdx uint32
}

func (e *CoreError) Error() string { return e.Msg }

func errKind(kind ErrorKind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func errMissingSender(peerIdx uint32) *CoreError {
	return &CoreError{
		Kind:    KindMissingSenderSignature,
		Msg:     fmt.Sprintf("missing signature from sender %d", peerIdx),
		PeerIdx: peerIdx,
	}
}

// IsValidationError reports whether err came from validating a submitted
// operation rather than from I/O or log corruption. Validation errors leave
// the log and state untouched and are safe to return straight to a caller.
func IsValidationError(err error) bool {
	ce, ok := err.(*CoreError)
	if !ok {
		return false
	}
	return ce.Kind != KindIOError && ce.Kind != KindCorruption
}
