package engine

import "testing"

func TestDeterministicRNGReproducible(t *testing.T) {
	a := NewDeterministicRNG(123)
	b := NewDeterministicRNG(123)
	for i := 0; i < 20; i++ {
		if a.UniformInt(50) != b.UniformInt(50) {
			t.Fatalf("draw %d diverged between identically-seeded RNGs", i)
		}
	}
}

func TestDeterministicRNGUniformIntBounds(t *testing.T) {
	r := NewDeterministicRNG(1)
	for i := 0; i < 200; i++ {
		v := r.UniformInt(7)
		if v < 0 || v >= 7 {
			t.Fatalf("UniformInt(7) = %d, out of bounds", v)
		}
	}
}

func TestSecureRNGProducesInBoundsValues(t *testing.T) {
	r := NewSecureRNG()
	for i := 0; i < 200; i++ {
		v := r.UniformInt(11)
		if v < 0 || v >= 11 {
			t.Fatalf("UniformInt(11) = %d, out of bounds", v)
		}
	}
}

func TestGenerateLobbyCodeShapeAndAlphabet(t *testing.T) {
	code := GenerateLobbyCode(NewSecureRNG())
	if len(code) != LobbyCodeLength {
		t.Fatalf("lobby code length = %d, want %d", len(code), LobbyCodeLength)
	}
	for _, ch := range code {
		found := false
		for _, allowed := range lobbyCodeAlphabet {
			if ch == allowed {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("lobby code contains disallowed character %q", ch)
		}
	}
}
