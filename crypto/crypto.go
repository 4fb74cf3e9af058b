// Package crypto provides the stateless primitives handed to the DHT
// engine as callbacks: the fixed content digest and detached Ed25519
// signatures.
package crypto

import (
	"crypto/ed25519"
	"crypto/sha1"
)

// DigestSize is the size of a content digest in bytes.
const DigestSize = sha1.Size

// SignatureSize is the size of an Ed25519 signature in bytes.
const SignatureSize = ed25519.SignatureSize

// Sum computes the content digest of data. SHA-1 is fixed by the overlay
// protocol; item addresses and the persisted-state checksum both use it.
func Sum(data []byte) [DigestSize]byte {
	return sha1.Sum(data)
}

// Sign writes a detached signature of message into signature, which must
// be at least SignatureSize bytes. secretKey is an Ed25519 private key
// in its 64-byte expanded form. Signing always succeeds given valid key
// material.
func Sign(signature, message, secretKey []byte) {
	sig := ed25519.Sign(ed25519.PrivateKey(secretKey), message)
	copy(signature, sig)
}

// Verify reports whether signature is a valid detached Ed25519 signature
// of message under publicKey. Malformed keys or signatures verify as
// false rather than erroring; the engine only consumes a boolean.
func Verify(signature, message, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}
