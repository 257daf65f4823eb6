package fingerprint

import "github.com/pkg/errors"

var (
	// ErrFormat matches every FormatError with errors.Is.
	ErrFormat = errors.New("invalid fingerprint format")
	// ErrLength matches every LengthError with errors.Is.
	ErrLength = errors.New("fingerprint too long")
)

// FormatError reports a packed or encoded fingerprint that cannot be decoded.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "fingerprint: " + e.Reason
}

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// LengthError reports a feature array whose length cannot be represented,
// either in the 24-bit count of the packed format or in the index bits of the
// matcher's alignment keys.
type LengthError struct {
	Reason string
}

func (e *LengthError) Error() string {
	return "fingerprint: " + e.Reason
}

// Is reports whether target is ErrLength.
func (e *LengthError) Is(target error) bool {
	return target == ErrLength
}
