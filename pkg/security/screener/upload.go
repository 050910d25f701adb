package screener

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge and ErrMIMENotAllowed classify upload rejections so the
// HTTP layer can map them to response codes with errors.Is.
var (
	ErrFileTooLarge   = errors.New("file exceeds maximum allowed size")
	ErrMIMENotAllowed = errors.New("file type is not allowed")
)

// UploadPolicy screens file upload metadata before any bytes are
// processed. The zero value rejects everything; build it from
// configuration.
type UploadPolicy struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64

	// AllowedMIMETypes lists accepted Content-Type values exactly.
	AllowedMIMETypes []string
}

// Check validates the declared content type and size against the policy.
// A negative size means the client did not declare one (chunked transfer
// encoding); the policy rejects it rather than admit an unbounded body.
func (p UploadPolicy) Check(mimeType string, size int64) error {
	if size < 0 {
		return fmt.Errorf("%w: size not declared (limit %d)", ErrFileTooLarge, p.MaxFileSize)
	}
	if size > p.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, size, p.MaxFileSize)
	}
	for _, allowed := range p.AllowedMIMETypes {
		if mimeType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrMIMENotAllowed, mimeType)
}
