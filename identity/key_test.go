package identity

import (
	"testing"

	"yc_scrooper/models"
)

func TestKeyOf_ExactMatch(t *testing.T) {
	a := &models.Company{Name: "Acme", Location: "Toronto, ON", URL: "https://example.com/acme"}
	b := &models.Company{Name: "Acme", Location: "Toronto, ON", URL: "https://example.com/acme"}

	if KeyOf(a) != KeyOf(b) {
		t.Fatal("identical triples should produce equal keys")
	}
}

func TestKeyOf_NoNormalization(t *testing.T) {
	a := &models.Company{Name: "Acme", Location: "Toronto", URL: "https://example.com/acme"}
	b := &models.Company{Name: "acme", Location: "Toronto", URL: "https://example.com/acme"}

	if KeyOf(a) == KeyOf(b) {
		t.Fatal("keys must be case-sensitive")
	}
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	a := Key{Name: "ab", Location: "c", URL: "x"}
	b := Key{Name: "a", Location: "bc", URL: "x"}

	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("fingerprint must keep field boundaries distinct")
	}
}

func TestFingerprint_Stable(t *testing.T) {
	k := Key{Name: "Acme", Location: "Toronto", URL: "https://example.com/acme"}
	if k.Fingerprint() != k.Fingerprint() {
		t.Fatal("fingerprint must be deterministic")
	}
	if len(k.Fingerprint()) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(k.Fingerprint()))
	}
}
