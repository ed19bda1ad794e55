package xcrypt

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte(`{"cmd":"reportGatewayInfo","type":"HA"}`),
		bytes.Repeat([]byte{0xAB}, 257),
	}

	for _, plaintext := range cases {
		ciphertext := c.Encrypt(plaintext)
		if len(ciphertext) != len(plaintext) {
			t.Fatalf("ciphertext length %d, want %d", len(ciphertext), len(plaintext))
		}
		got := c.Decrypt(ciphertext)
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch: got %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptIsDeterministic(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	plaintext := []byte("deterministic under fixed IV")
	a := c.Encrypt(plaintext)
	b := c.Encrypt(plaintext)
	if !bytes.Equal(a, b) {
		t.Fatal("encryption under the fixed IV must be deterministic")
	}
}

func TestRandomKeyShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		k := RandomKey()
		if len(k) != 16 {
			t.Fatalf("key %q has length %d, want 16", k, len(k))
		}
		for _, r := range k {
			if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
				t.Fatalf("key %q contains non-lowercase-hex rune %q", k, r)
			}
		}
		if seen[k] {
			t.Fatalf("key %q generated twice in %d draws", k, i+1)
		}
		seen[k] = true
	}
}
