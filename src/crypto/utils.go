package crypto

import (
	"crypto/ecdsa"

	"github.com/meridiannetwork/meridian/src/crypto/keys"
)

// GenerateECDSAKey generates a new key pair on the secp256k1 curve.
func GenerateECDSAKey() (*ecdsa.PrivateKey, error) {
	return keys.GenerateECDSAKey()
}

// FromECDSAPub exports a public key into the uncompressed binary format.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	return keys.FromPublicKey(pub)
}
