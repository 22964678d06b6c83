// Package sshkey parses system-user private key material into usable SSH
// signers.
package sshkey

import (
	"errors"
	"strings"

	"golang.org/x/crypto/ssh"
)

var ErrNotPrivateKey = errors.New("not a private key")

// ParsePrivateKey parses PEM-encoded private key text (RSA, ed25519, ECDSA
// or OpenSSH format) into an ssh.Signer.
func ParsePrivateKey(text string) (ssh.Signer, error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "PRIVATE KEY") {
		return nil, ErrNotPrivateKey
	}
	return ssh.ParsePrivateKey([]byte(text))
}

// ParsePrivateKeyWithPassphrase parses passphrase-protected private key text.
func ParsePrivateKeyWithPassphrase(text, passphrase string) (ssh.Signer, error) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, "PRIVATE KEY") {
		return nil, ErrNotPrivateKey
	}
	return ssh.ParsePrivateKeyWithPassphrase([]byte(text), []byte(passphrase))
}

// Fingerprint returns the SHA256 fingerprint of a signer's public key.
func Fingerprint(signer ssh.Signer) string {
	if signer == nil {
		return ""
	}
	return ssh.FingerprintSHA256(signer.PublicKey())
}
