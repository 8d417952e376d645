package format

import "errors"

var (
	// ErrSignatureMismatch indicates a header did not carry BlockSignature.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a header or payload.
	ErrTruncated = errors.New("format: truncated buffer")
)
