// Package keygen generates ed25519 SSH key pairs for client authentication.
package keygen

import (
	"github.com/charmbracelet/keygen"
)

// GenerateKey generates an in-memory ed25519 key pair and returns the raw
// private key and the authorized_keys form of the public key.
func GenerateKey() (privateKey, publicKey []byte, err error) {
	kp, err := keygen.New("", keygen.WithKeyType(keygen.Ed25519))
	if err != nil {
		return nil, nil, err
	}
	return kp.RawPrivateKey(), kp.RawAuthorizedKey(), nil
}

// WriteKeyPair generates an ed25519 key pair and writes it to path and
// path+".pub", returning both paths.
func WriteKeyPair(path string) (privateKeyPath, publicKeyPath string, err error) {
	kp, err := keygen.New(path, keygen.WithKeyType(keygen.Ed25519))
	if err != nil {
		return "", "", err
	}
	return path, path + ".pub", kp.WriteKeys()
}
