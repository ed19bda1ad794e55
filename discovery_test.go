package dali

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/maginawin/go-dali-gateway/internal/xcrypt"
)

func newTestDiscoverer(t *testing.T) *Discoverer {
	t.Helper()
	d, err := NewDiscoverer(slog.Default())
	if err != nil {
		t.Fatalf("NewDiscoverer: %v", err)
	}
	return d
}

func TestCoerceChannelTotal(t *testing.T) {
	got := coerceChannelTotal([]any{float64(1), float64(2), "3", "not-a-number"})
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCoerceChannelTotalEmpty(t *testing.T) {
	if got := coerceChannelTotal(nil); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestBuildMessageShape(t *testing.T) {
	d := newTestDiscoverer(t)

	payload, err := d.buildMessage()
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}

	var msg discoveryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal built message: %v", err)
	}
	if msg.Type != discoveryMessageType {
		t.Errorf("got type %q, want %q", msg.Type, discoveryMessageType)
	}
	if _, err := hex.DecodeString(msg.Cmd); err != nil {
		t.Errorf("cmd field is not valid hex: %v", err)
	}
}

func TestDecodeReplyRoundTrip(t *testing.T) {
	d := newTestDiscoverer(t)

	userCipher := d.cryptor.Encrypt([]byte("admin"))
	passCipher := d.cryptor.Encrypt([]byte("secret"))

	raw, _ := json.Marshal(discoveryReply{
		Data: &discoveryReplyData{
			GwSN:         "GW001",
			GwIP:         "192.168.1.50",
			Port:         1883,
			IsMqttTLS:    false,
			Name:         "Living Room Gateway",
			Username:     hex.EncodeToString(userCipher),
			Passwd:       hex.EncodeToString(passCipher),
			ChannelTotal: []any{float64(1), float64(2)},
		},
	})

	gw, err := d.decodeReply(raw)
	if err != nil {
		t.Fatalf("decodeReply: %v", err)
	}
	if gw == nil {
		t.Fatal("expected a decoded gateway, got nil")
	}
	if gw.GwSN != "GW001" || gw.GwIP != "192.168.1.50" || gw.Port != 1883 {
		t.Fatalf("unexpected gateway fields: %+v", gw)
	}
	if gw.Username != "admin" || gw.Passwd != "secret" {
		t.Fatalf("expected decrypted credentials, got %+v", gw)
	}
	if len(gw.ChannelTotal) != 2 {
		t.Fatalf("expected 2 channels, got %v", gw.ChannelTotal)
	}
}

func TestDecodeReplyDefaultsName(t *testing.T) {
	d := newTestDiscoverer(t)

	raw, _ := json.Marshal(discoveryReply{
		Data: &discoveryReplyData{GwSN: "GW002"},
	})

	gw, err := d.decodeReply(raw)
	if err != nil {
		t.Fatalf("decodeReply: %v", err)
	}
	if gw.Name == "" {
		t.Fatal("expected a default name when reply omits one")
	}
}

func TestDecodeReplyMissingSerialIsIgnored(t *testing.T) {
	d := newTestDiscoverer(t)

	raw, _ := json.Marshal(discoveryReply{Data: &discoveryReplyData{}})
	gw, err := d.decodeReply(raw)
	if err != nil {
		t.Fatalf("decodeReply: %v", err)
	}
	if gw != nil {
		t.Fatalf("expected nil gateway for an empty serial, got %+v", gw)
	}
}

func TestDecodeReplyNoDataIsIgnored(t *testing.T) {
	d := newTestDiscoverer(t)

	raw, _ := json.Marshal(discoveryReply{})
	gw, err := d.decodeReply(raw)
	if err != nil {
		t.Fatalf("decodeReply: %v", err)
	}
	if gw != nil {
		t.Fatalf("expected nil gateway when data is absent, got %+v", gw)
	}
}

func TestDecodeReplyUndecodable(t *testing.T) {
	d := newTestDiscoverer(t)
	if _, err := d.decodeReply([]byte("not json")); err == nil {
		t.Fatal("expected an error for an undecodable reply")
	}
}

func TestDecryptFieldEmptyIsEmpty(t *testing.T) {
	d := newTestDiscoverer(t)
	got, err := d.decryptField("")
	if err != nil {
		t.Fatalf("decryptField: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestDecryptFieldInvalidHex(t *testing.T) {
	d := newTestDiscoverer(t)
	if _, err := d.decryptField("not-hex"); err == nil {
		t.Fatal("expected an error for invalid hex")
	}
}

// sanity check that the discoverer's cryptor and internal/xcrypt agree on
// round-tripping, since decodeReply relies on it for credential fields.
func TestCryptorRoundTripAgreesWithDiscoverer(t *testing.T) {
	c, err := xcrypt.New()
	if err != nil {
		t.Fatalf("xcrypt.New: %v", err)
	}
	d := newTestDiscoverer(t)
	cipher := c.Encrypt([]byte("hello"))
	if string(d.cryptor.Decrypt(cipher)) != "hello" {
		t.Fatal("expected CTR round trip to recover the original plaintext")
	}
}
