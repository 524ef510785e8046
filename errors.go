package yupee

import (
	"errors"

	"github.com/pthm/yupee/lib/encoding"
	"github.com/pthm/yupee/lib/store"
)

// Sentinel errors for registry, component and driver operations.
var (
	ErrNotFound           = errors.New("yupee: resource not found")
	ErrLoadFailed         = errors.New("yupee: component load failed")
	ErrRemoved            = errors.New("yupee: component was removed")
	ErrUnsupportedContent = errors.New("yupee: unsupported content")
	ErrDecryptFailed      = errors.New("yupee: snapshot decryption failed")
	ErrSignatureInvalid   = errors.New("yupee: snapshot signature verification failed")
	ErrInvalidFormat      = errors.New("yupee: invalid snapshot format")
)

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsLoadError checks if err came from a failed component load.
func IsLoadError(err error) bool {
	return errors.Is(err, ErrLoadFailed)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// wrapLibError maps lib/encoding and lib/store errors onto yupee sentinels.
func wrapLibError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrInvalidFormat):
		return ErrInvalidFormat
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, encoding.ErrDecryptFailed):
		return ErrDecryptFailed
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	}
	return err
}
