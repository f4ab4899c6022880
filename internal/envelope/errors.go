// Package envelope implements the COSE_Encrypt0-shaped authenticated
// message wrapping a single device operation: decode validates structure,
// critical-header policy and associated data, then decrypts; encode
// builds the matching wire form for a response.
package envelope

import "errors"

// Errors mirror spec.md §4.2's failure domain.
var (
	ErrMissingHeaderField    = errors.New("envelope: missing protected header field")
	ErrUnknownHeaderKey      = errors.New("envelope: unknown protected header key")
	ErrUnknownCriticalHeader = errors.New("envelope: unknown critical header")
	ErrUnknownAlgorithm      = errors.New("envelope: unknown algorithm")
	ErrInvalidMessage        = errors.New("envelope: invalid message structure")
	ErrDecryptionError       = errors.New("envelope: decryption failed")
	ErrEncryptionError       = errors.New("envelope: encryption failed")
	ErrRandomnessFailed      = errors.New("envelope: randomness source failed")
)
