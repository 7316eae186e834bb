package romdb

import "testing"

func TestLookupFindsKnownMulticart(t *testing.T) {
	q, ok := Lookup(0x7ff52dbf)
	if !ok {
		t.Fatal("expected known multicart CRC32 to be found")
	}
	if !q.ForceMBC1Multi {
		t.Error("expected ForceMBC1Multi to be true for this entry")
	}
}

func TestLookupMissForUnknownROM(t *testing.T) {
	_, ok := Lookup(0xDEADBEEF)
	if ok {
		t.Fatal("expected unknown CRC32 to miss")
	}
}

func TestCRC32IsDeterministic(t *testing.T) {
	data := []byte("a fake rom image")
	if CRC32(data) != CRC32(data) {
		t.Fatal("CRC32 must be deterministic for identical input")
	}
	if CRC32(data) == CRC32([]byte("a different rom image")) {
		t.Fatal("CRC32 of distinct inputs collided unexpectedly")
	}
}
