// Package xcrypt implements the AES-128-CTR cipher used to obscure the
// discovery handshake payload, and the random key generator the client
// uses to identify itself in that handshake.
package xcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// masterKey and iv are fixed, protocol-level constants, not secrets: every
// client and gateway on the wire shares them. They exist to obscure the
// discovery payload from casual packet inspection, not to provide
// confidentiality against an adversary who has the client source.
const (
	masterKey = "SR-DALI-GW-HASYS"
	iv        = "0000000000101111"
)

// Cryptor encrypts and decrypts discovery payloads with AES-128-CTR under
// the fixed master key and IV.
type Cryptor struct {
	block cipher.Block
}

// New constructs a Cryptor. It only fails if the compiled-in master key is
// not a valid AES key size, which would be a programming error.
func New() (*Cryptor, error) {
	block, err := aes.NewCipher([]byte(masterKey))
	if err != nil {
		return nil, fmt.Errorf("xcrypt: new cipher: %w", err)
	}
	return &Cryptor{block: block}, nil
}

// Encrypt returns the AES-CTR encryption of plaintext under the fixed key
// and IV. CTR is a stream cipher so the output is the same length as the
// input.
func (c *Cryptor) Encrypt(plaintext []byte) []byte {
	out := make([]byte, len(plaintext))
	stream := cipher.NewCTR(c.block, []byte(iv))
	stream.XORKeyStream(out, plaintext)
	return out
}

// Decrypt reverses Encrypt. AES-CTR is symmetric, so this runs the same
// keystream XOR as Encrypt.
func (c *Cryptor) Decrypt(ciphertext []byte) []byte {
	out := make([]byte, len(ciphertext))
	stream := cipher.NewCTR(c.block, []byte(iv))
	stream.XORKeyStream(out, ciphertext)
	return out
}

// RandomKey returns a fresh 16-character lowercase hex key, used by the
// client to identify itself in the discovery handshake.
func RandomKey() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
