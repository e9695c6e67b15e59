package prompts

import (
	"math/rand"
	"strings"
	"testing"
)

func TestTemplatesFill(t *testing.T) {
	if got := ForEntity("Vega"); !strings.Contains(got, "**Entity**: Vega") || strings.Contains(got, "{{") {
		t.Errorf("ForEntity left placeholders: %q", got)
	}
	for _, tmpl := range []string{Image, Caption} {
		got := ForQuote(tmpl, "Stars sing.")
		if !strings.Contains(got, `"Stars sing."`) || strings.Contains(got, "{{") {
			t.Errorf("ForQuote left placeholders: %q", got)
		}
	}
}

func TestRandomEntity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if e := RandomEntity(rng); !IsEntity(e) {
			t.Fatalf("RandomEntity returned unknown %q", e)
		}
	}
	if IsEntity("Tatooine") {
		t.Error("IsEntity accepted an unknown name")
	}
}
