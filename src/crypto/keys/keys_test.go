package keys

import (
	"testing"
)

func TestDumpParsePrivateKey(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	dump := DumpPrivateKey(key)

	parsed, err := ParsePrivateKey(dump)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if parsed.D.Cmp(key.D) != 0 {
		t.Fatal("parsed key does not match original")
	}
	if parsed.PublicKey.X.Cmp(key.PublicKey.X) != 0 {
		t.Fatal("parsed public key does not match original")
	}
}

func TestParsePrivateKeyRejectsZero(t *testing.T) {
	if _, err := ParsePrivateKey([]byte{0x00}); err == nil {
		t.Fatal("expected an error for a zero key")
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	key, err := GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	raw := FromPublicKey(&key.PublicKey)
	pub := ToPublicKey(raw)

	if pub.X.Cmp(key.PublicKey.X) != 0 || pub.Y.Cmp(key.PublicKey.Y) != 0 {
		t.Fatal("unmarshaled public key does not match original")
	}

	hex := PublicKeyHex(&key.PublicKey)
	if len(hex) < 3 || hex[:2] != "0X" {
		t.Fatalf("got %s", hex)
	}
}
