// Package errkind defines the error kinds shared by the texture codecs.
//
// Every failure returned by the codec packages wraps exactly one of these
// values, so callers can branch with errors.Is regardless of the message.
package errkind

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFormat means the format has no pipeline in the requested direction.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptData means a buffer is inconsistent with its declared dimensions or format.
	ErrCorruptData = errors.New("corrupt data")

	// ErrInvalidParameter means a dimension or option is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// CheckDimensions rejects non-positive image sizes.
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "dimensions %dx%d", width, height)
	}
	return nil
}

// CheckLength rejects buffers shorter than need.
func CheckLength(what string, got, need int) error {
	if got < need {
		return errors.Wrapf(ErrCorruptData, "%s: need %d bytes, got %d", what, need, got)
	}
	return nil
}
