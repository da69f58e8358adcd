package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Encryptor encrypts small JSON payloads with AES-256-GCM. The key is checked
// at construction so a misconfigured process fails before serving anything.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(base64Key string) (*Encryptor, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be a base64 encoded 32-byte key")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encryptor{aead: aead}, nil
}

// EncryptJSON serializes v to JSON and encrypts it. The returned string is
// base64(nonce || ciphertext || tag).
func (e *Encryptor) EncryptJSON(v interface{}) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := e.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecryptJSON reverses EncryptJSON into out. Tampered ciphertext fails the
// GCM tag check and returns an error.
func (e *Encryptor) DecryptJSON(encrypted string, out interface{}) error {
	decoded, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return err
	}

	if len(decoded) < e.aead.NonceSize() {
		return errors.New("ciphertext too short")
	}

	nonce := decoded[:e.aead.NonceSize()]
	plaintext, err := e.aead.Open(nil, nonce, decoded[e.aead.NonceSize():], nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return json.Unmarshal(plaintext, out)
}
