package common

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeString(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	encoded := EncodeToString(data)
	if encoded != "0XDEADBEEF" {
		t.Fatalf("got %s", encoded)
	}

	decoded, err := DecodeFromString(encoded)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("got %v, expected %v", decoded, data)
	}
}

func TestHash32(t *testing.T) {
	a := Hash32([]byte("meridian"))
	b := Hash32([]byte("meridian"))
	if a != b {
		t.Fatal("hash should be deterministic")
	}

	if Hash32([]byte("meridian")) == Hash32([]byte("meridiam")) {
		t.Fatal("different inputs should not collide here")
	}
}
