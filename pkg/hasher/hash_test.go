package hasher

import "testing"

func TestHash_Deterministic(t *testing.T) {
	in := "same input"
	if Hash(in) != Hash(in) {
		t.Fatalf("hash must be deterministic")
	}
}

func TestHash_DifferentInputs(t *testing.T) {
	if Hash("a") == Hash("b") {
		t.Fatalf("different inputs should not produce the same hash")
	}
}

func TestHash_KnownVector(t *testing.T) {
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := Hash("hello"); got != want {
		t.Fatalf("unexpected hash: got %s want %s", got, want)
	}
}

func TestVerify(t *testing.T) {
	if !Verify("secret", Hash("secret")) {
		t.Fatalf("expected matching hash to verify")
	}
	if Verify("secret", Hash("other")) {
		t.Fatalf("expected mismatched hash to fail")
	}
}
