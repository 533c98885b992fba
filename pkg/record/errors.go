package record

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownIndex marks an entry index absent from the decoder's type
	// directory: a corrupt record, or a headerless record decoded without
	// the shared directory it was written against.
	ErrUnknownIndex = errors.New("unknown type index")

	// ErrMalformed marks a structurally broken record: truncated buffer,
	// missing sentinel, or a varint/sized string overrunning the input.
	ErrMalformed = errors.New("malformed record")

	// ErrIndexExhausted is returned when an IndexMap has assigned all
	// 65535 usable indices; index 0 stays reserved for the sentinel, so
	// encoding must fail rather than wrap into it.
	ErrIndexExhausted = errors.New("type index space exhausted")
)

// All record errors are permanent: a record failing to decode must be
// rejected whole, never partially applied.

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
