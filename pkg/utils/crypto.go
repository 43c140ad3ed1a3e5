package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var encryptionKey []byte

const (
	encryptionSalt = "vidshelf-settings-encryption"
	// sealedPrefix marks values written by SealSecret so plaintext rows left
	// from before encryption was configured still read back.
	sealedPrefix = "enc:v1:"
)

var ErrEncryptionNotConfigured = errors.New("encryption not configured")

func ConfigureEncryption(secret string) {
	if secret == "" {
		encryptionKey = nil
		return
	}
	hkdfReader := hkdf.New(
		sha256.New,
		[]byte(secret),
		[]byte(encryptionSalt),
		[]byte("settings-key"),
	)
	encryptionKey = make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, encryptionKey); err != nil {
		panic(fmt.Sprintf("failed to derive encryption key: %v", err))
	}
}

func EncryptionConfigured() bool {
	return encryptionKey != nil
}

func newGCM() (cipher.AEAD, error) {
	if encryptionKey == nil {
		return nil, ErrEncryptionNotConfigured
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func EncryptAESGCM(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func DecryptAESGCM(encrypted string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// SealSecret encrypts value when a key is configured and returns it unchanged
// otherwise.
func SealSecret(value string) (string, error) {
	if value == "" || !EncryptionConfigured() {
		return value, nil
	}
	encrypted, err := EncryptAESGCM(value)
	if err != nil {
		return "", err
	}
	return sealedPrefix + encrypted, nil
}

func DecryptOrPlaintext(value string) string {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value
	}
	decrypted, err := DecryptAESGCM(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return ""
	}
	return decrypted
}
