package code

import (
	"regexp"
	"testing"
)

var codePattern = regexp.MustCompile(`^PLF-[0-9A-F]{6}$`)

func TestRandomGenerator_Format(t *testing.T) {
	g := NewRandomGenerator("")

	for i := 0; i < 100; i++ {
		out, err := g.NewCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if !codePattern.MatchString(out) {
			t.Fatalf("code %q does not match %s", out, codePattern)
		}
	}
}

func TestRandomGenerator_CustomPrefix(t *testing.T) {
	g := NewRandomGenerator("cup")

	out, err := g.NewCode()
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if matched := regexp.MustCompile(`^CUP-[0-9A-F]{6}$`).MatchString(out); !matched {
		t.Fatalf("code %q does not carry uppercased prefix", out)
	}
}

func TestRandomGenerator_CollisionRate(t *testing.T) {
	g := NewRandomGenerator(DefaultPrefix)

	seen := make(map[string]struct{}, 10000)
	collisions := 0
	for i := 0; i < 10000; i++ {
		out, err := g.NewCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if _, dup := seen[out]; dup {
			collisions++
		}
		seen[out] = struct{}{}
	}

	// Birthday bound for 10k draws over 2^24 values is ~3 expected
	// collisions; anything past a couple dozen means broken randomness.
	if collisions > 25 {
		t.Fatalf("too many collisions: %d", collisions)
	}
}
