// Package cryptox implements the versioned password-based envelope that
// protects the content of a locked space, plus a single-flight guard around
// decryption.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

// Envelope version 1 parameters. These constants are baked into the format:
// changing any of them requires a new version number, and Decrypt dispatches
// on Envelope.Version.
const (
	EnvelopeVersion = 1

	kdfIterations = 100000
	keySize       = 32 // AES-256
	saltSize      = 16 // 128 bit
	ivSize        = aes.BlockSize
)

var (
	// ErrEncryptionFailed reports that an envelope could not be constructed.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed covers a wrong password as well as every flavor of
	// corrupted envelope (bad padding, broken UTF-8, invalid JSON). The
	// causes are deliberately indistinguishable so that nothing beyond
	// "it didn't work" leaks to a guessing party.
	ErrDecryptionFailed = errors.New("decryption failed: invalid password or corrupted data")

	// ErrUnsupportedVersion reports an envelope this codec cannot decode.
	// Retrying with a different password is pointless.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")
)

// Envelope holds ciphertext plus the parameters needed to recover it with
// the right password. All fields are text, so an Envelope can be embedded in
// any JSON document.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	Version    int    `json:"version"`
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, kdfIterations, keySize, sha256.New)
}

// Encrypt serializes v to JSON and seals it under a key derived from
// password. Salt and IV are freshly random on every call and never reused,
// so encrypting the same value twice yields different envelopes.
func Encrypt(v any, password string) (*Envelope, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         hex.EncodeToString(iv),
		Salt:       hex.EncodeToString(salt),
		Version:    EnvelopeVersion,
	}, nil
}

// Decrypt reverses Encrypt, unmarshaling the recovered JSON into v.
// It fails fast with ErrUnsupportedVersion on an unknown version; every
// other failure is reported as ErrDecryptionFailed.
func Decrypt(env *Envelope, password string, v any) error {
	if env == nil {
		return ErrDecryptionFailed
	}
	if env.Version != EnvelopeVersion {
		return ErrUnsupportedVersion
	}

	salt, err := hex.DecodeString(env.Salt)
	if err != nil {
		return ErrDecryptionFailed
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != ivSize {
		return ErrDecryptionFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return ErrDecryptionFailed
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, ok := pkcs7Unpad(plaintext, aes.BlockSize)
	if !ok || !utf8.Valid(plaintext) {
		return ErrDecryptionFailed
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrDecryptionFailed
	}
	return nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
