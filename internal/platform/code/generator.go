package code

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	DefaultPrefix = "PLF"
	randomBytes   = 3
)

const hexUpper = "0123456789ABCDEF"

// Generator creates short human-shareable registration codes.
type Generator interface {
	NewCode() (string, error)
}

// RandomGenerator produces codes like PLF-9A3C11: a fixed domain tag plus
// three crypto/rand bytes as uppercase hex. 2^24 values keeps collision
// probability negligible at league scale; the store unique index backstops
// the rest.
type RandomGenerator struct {
	prefix string
}

func NewRandomGenerator(prefix string) *RandomGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RandomGenerator{prefix: prefix}
}

func (g *RandomGenerator) NewCode() (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	var sb strings.Builder
	sb.Grow(len(g.prefix) + 1 + randomBytes*2)
	sb.WriteString(g.prefix)
	sb.WriteByte('-')
	for _, b := range buf {
		sb.WriteByte(hexUpper[b>>4])
		sb.WriteByte(hexUpper[b&0x0f])
	}

	return sb.String(), nil
}
