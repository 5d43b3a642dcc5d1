package crypto

import (
	"testing"

	"github.com/meridiannetwork/meridian/src/crypto/keys"
)

func TestReadWritePemKey(t *testing.T) {
	dir := t.TempDir()

	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	pemKey := NewPemKey(dir)

	if err := pemKey.WriteKey(key); err != nil {
		t.Fatalf("err: %v", err)
	}

	read, err := pemKey.ReadKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if read.D.Cmp(key.D) != 0 {
		t.Fatal("read key does not match written key")
	}
	if read.PublicKey.X.Cmp(key.PublicKey.X) != 0 || read.PublicKey.Y.Cmp(key.PublicKey.Y) != 0 {
		t.Fatal("read public key does not match written public key")
	}
}

func TestToPemKey(t *testing.T) {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	dump, err := ToPemKey(key)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if dump.PublicKey == "" || dump.PrivateKey == "" {
		t.Fatalf("got %+v", dump)
	}
}
