package defect

import "errors"

var (
	// ErrInvalidInput indicates a zero-area image or a malformed pixel buffer.
	ErrInvalidInput = errors.New("defect: invalid input image")
	// ErrParameterOutOfRange indicates detection parameters outside their valid range.
	ErrParameterOutOfRange = errors.New("defect: parameter out of range")
)
