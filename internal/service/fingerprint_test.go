package service

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("hello world"))
	b := Fingerprint([]byte("hello world"))
	if a != b {
		t.Fatalf("same content produced different fingerprints: %s vs %s", a, b)
	}
}

func TestFingerprintKnownValue(t *testing.T) {
	// sha256("hello world")
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := Fingerprint([]byte("hello world")); got != want {
		t.Fatalf("Fingerprint = %s, want %s", got, want)
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	if Fingerprint([]byte("invoice-a")) == Fingerprint([]byte("invoice-b")) {
		t.Fatal("different content produced identical fingerprints")
	}
}

func TestFingerprintLength(t *testing.T) {
	if got := len(Fingerprint(nil)); got != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex characters", got)
	}
}
