package engine

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
)

// RNG is the shared interface both RNG sources expose (spec.md §4.8):
// a uniform integer draw in [0, n) and an in-place Fisher-Yates
// shuffle driven by it.
type RNG interface {
	UniformInt(n int) int
	ShuffleInPlace(n int, swap func(i, j int))
}

// DeterministicRNG wraps math/rand/v2's PCG generator, seeded from a
// fixed pair of uint64s. Given the same seed it always produces the
// same stream, which is what makes §4.1 reshuffles and §8 P7
// ("given the same seed, shuffle produces the same permutation")
// reproducible. Grounded on engine/terminal.go's own recommendation
// (in the teacher repo) to use rand.New(rand.NewPCG(seed, seed^...))
// for exactly this purpose.
type DeterministicRNG struct {
	r *mrand.Rand
}

// NewDeterministicRNG builds a seeded RNG. The same seed always
// yields the same sequence of draws.
func NewDeterministicRNG(seed uint64) *DeterministicRNG {
	return &DeterministicRNG{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (d *DeterministicRNG) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	return d.r.IntN(n)
}

func (d *DeterministicRNG) ShuffleInPlace(n int, swap func(i, j int)) {
	fisherYates(n, d.UniformInt, swap)
}

// SecureRNG is backed by crypto/rand and is used for production
// shuffles and lobby-code generation where predictability would be a
// security concern (spec.md §4.8).
type SecureRNG struct{}

func NewSecureRNG() *SecureRNG { return &SecureRNG{} }

func (s *SecureRNG) UniformInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand.Reader failing is not something a process can
		// meaningfully recover from; fall back to a weak but available
		// source rather than panic mid-game.
		return int(randFallback(n))
	}
	return int(v.Int64())
}

func (s *SecureRNG) ShuffleInPlace(n int, swap func(i, j int)) {
	fisherYates(n, s.UniformInt, swap)
}

// fisherYates runs the standard backward shuffle: for i from n-1 down
// to 1, swap i with a uniform draw in [0, i]. Grounded on
// original_source/src/game/deck.py's shuffle_cards and the teacher's
// engine/game.go Deal() shuffle loop.
func fisherYates(n int, uniform func(int) int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := uniform(i + 1)
		swap(i, j)
	}
}

func randFallback(n int) int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	v := int64(0)
	for _, x := range b {
		v = v<<8 | int64(x)
	}
	if v < 0 {
		v = -v
	}
	return v % int64(n)
}

const lobbyCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// LobbyCodeLength is the fixed length of a generated lobby code
// (spec.md §4.6).
const LobbyCodeLength = 6

// GenerateLobbyCode produces a 6-character alphanumeric code from an
// alphabet excluding visually ambiguous characters (0/O, 1/I/L),
// grounded on original_source/src/utils/crypto.py's
// generate_lobby_code. Draws from the RNG it is given; the lobby
// manager passes a SecureRNG, independent of the RNG a game uses for
// shuffles.
func GenerateLobbyCode(secure RNG) string {
	buf := make([]byte, LobbyCodeLength)
	for i := range buf {
		buf[i] = lobbyCodeAlphabet[secure.UniformInt(len(lobbyCodeAlphabet))]
	}
	return string(buf)
}
