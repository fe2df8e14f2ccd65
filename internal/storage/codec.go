package storage

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec turns serialized JSON into the text stored by a backend and back.
// key is the unprefixed storage key the value lives under.
type Codec interface {
	Name() string
	Encode(key string, plain []byte) (string, error)
	Decode(key string, stored string) ([]byte, error)
}

var ErrUnknownCodec = errors.New("unknown storage codec")

// NewCodec builds a codec by name. key is only used by "sealed".
func NewCodec(name string, key []byte) (Codec, error) {
	switch name {
	case "", "plain":
		return PlainCodec{}, nil
	case "base64":
		return Base64Codec{}, nil
	case "sealed":
		c, err := NewSealedCodec(key)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// PlainCodec stores JSON as-is. Values are readable by anyone with access to
// the backend.
type PlainCodec struct{}

func (PlainCodec) Name() string { return "plain" }

func (PlainCodec) Encode(_ string, plain []byte) (string, error) { return string(plain), nil }

func (PlainCodec) Decode(_, stored string) ([]byte, error) { return []byte(stored), nil }

// Base64Codec is a reversible, keyless text encoding. It provides no
// confidentiality. Kept for data written by earlier versions of the app.
type Base64Codec struct{}

func (Base64Codec) Name() string { return "base64" }

func (Base64Codec) Encode(_ string, plain []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plain), nil
}

func (Base64Codec) Decode(_, stored string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}

// SealedCodec encrypts values with XChaCha20-Poly1305. Stored form is
// base64(nonce || ciphertext). The storage key is bound as associated data,
// so a value copied under another key fails to open.
type SealedCodec struct {
	key []byte
}

func NewSealedCodec(key []byte) (*SealedCodec, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealed codec key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &SealedCodec{key: k}, nil
}

func (c *SealedCodec) Name() string { return "sealed" }

func (c *SealedCodec) Encode(key string, plain []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, []byte(key))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *SealedCodec) Decode(key, stored string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.New("sealed value too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plain, nil
}
