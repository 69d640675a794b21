package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"amber", "azure", "bold", "brave", "bright",
	"calm", "clear", "cool", "coral", "crisp",
	"dawn", "deep", "early", "fair", "fast",
	"firm", "fresh", "glad", "gold", "grand",
	"green", "keen", "kind", "light", "mild",
	"mint", "neat", "odd", "opal", "pale",
	"prime", "pure", "quiet", "rare", "ruby",
	"safe", "sage", "slim", "soft", "still",
	"swift", "tall", "teal", "true", "warm",
	"wide", "wild", "wise", "young", "even",
}

var nouns = []string{
	"abacus", "angle", "arc", "axis", "chord",
	"cosine", "cube", "curve", "digit", "divisor",
	"ellipse", "factor", "fraction", "graph", "helix",
	"integer", "lemma", "limit", "matrix", "median",
	"modulus", "nonce", "octant", "orbit", "parity",
	"pivot", "prism", "product", "quotient", "radius",
	"ratio", "root", "scalar", "sector", "series",
	"sigma", "slope", "sphere", "square", "sum",
	"tangent", "tensor", "theorem", "torus", "vector",
	"vertex", "volume", "wedge", "zenith", "zero",
}

// GenerateWordID returns a human-friendly ID such as "calm-prime-tangent".
// With 50 adjectives and 50 nouns there are 125,000 combinations; the
// manager retries on collision.
func GenerateWordID() string {
	return fmt.Sprintf("%s-%s-%s", pickRandom(adjectives), pickRandom(adjectives), pickRandom(nouns))
}

func pickRandom(list []string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return list[0]
	}
	return list[n.Int64()]
}
