package utils

import "testing"

func TestHash(t *testing.T) {
	if Hash("a", "b") != Hash("a", "b") {
		t.Error("Hash() is not deterministic")
	}
	if Hash("ab", "c") == Hash("a", "bc") {
		t.Error("Hash() must separate parts")
	}
	if len(Hash()) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(Hash()))
	}
}
