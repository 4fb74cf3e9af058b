package crypto

import (
	"crypto/subtle"
	"errors"
	"runtime"
)

// SecureWipe erases the contents of a byte slice holding sensitive data.
// It returns an error if the slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return errors.New("cannot wipe nil data")
	}

	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	// Keep the compiler from optimizing out the overwrite.
	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive
// data. This is a convenience wrapper that ignores the nil-slice error.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}
