package resolve_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gamex/gamex-cli/internal/resolve"
)

var games = []resolve.Named{
	{Key: "mobile-legends", Name: "Mobile Legends"},
	{Key: "free-fire", Name: "Free Fire"},
	{Key: "genshin-impact", Name: "Genshin Impact"},
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Mobile Legends", "mobile-legends"},
		{"mobile legends", "mobile-legends"},
		{"free-fire", "free-fire"},
		{"FREE-FIRE", "free-fire"},
		{"genshin", "genshin-impact"},
		{"  mobile  ", "mobile-legends"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := resolve.FuzzyMatch(tt.query, games)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("FuzzyMatch(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestFuzzyMatch_NoMatch(t *testing.T) {
	_, err := resolve.FuzzyMatch("valorant", games)
	var nf *resolve.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	if nf.Query != "valorant" {
		t.Fatalf("Query = %q", nf.Query)
	}
}

func TestFuzzyMatch_Ambiguous(t *testing.T) {
	items := []resolve.Named{
		{Key: "pubg-mobile-id", Name: "PUBG Mobile ID"},
		{Key: "pubg-mobile-gl", Name: "PUBG Mobile GL"},
	}
	_, err := resolve.FuzzyMatch("pubg", items)
	var ae *resolve.AmbiguousError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AmbiguousError, got %T: %v", err, err)
	}
	if len(ae.Matches) != 2 {
		t.Fatalf("expected two candidates: %+v", ae)
	}
}

func TestFuzzyMatch_PrefersExactOverFuzzy(t *testing.T) {
	items := []resolve.Named{
		{Key: "ff", Name: "Free Fire"},
		{Key: "ff-max", Name: "Free Fire MAX"},
	}
	got, err := resolve.FuzzyMatch("free fire", items)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ff" {
		t.Fatalf("expected exact match ff, got %q", got)
	}
}

func TestFuzzyMatch_EmptyInputs(t *testing.T) {
	if _, err := resolve.FuzzyMatch("", games); !errors.Is(err, resolve.ErrEmptyQuery) {
		t.Fatalf("empty query: got %v", err)
	}
	if _, err := resolve.FuzzyMatch("ml", nil); !errors.Is(err, resolve.ErrEmptyItems) {
		t.Fatalf("empty items: got %v", err)
	}
}

func TestFuzzyMatchAll_ReturnsRanked(t *testing.T) {
	matches := resolve.FuzzyMatchAll("i", games, 2)
	if len(matches) != 2 {
		t.Fatalf("expected limit of 2 matches, got %d", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Fatalf("matches not ranked best-first: %+v", matches)
	}
	if resolve.FuzzyMatchAll("", games, 5) != nil {
		t.Fatal("empty query should return nil")
	}
}

func TestAmbiguousErrorString(t *testing.T) {
	err := &resolve.AmbiguousError{
		Query: "pubg",
		Matches: []resolve.Match{
			{Key: "pubg-mobile-id", Name: "PUBG Mobile ID"},
			{Key: "pubg-mobile-gl", Name: "PUBG Mobile GL"},
		},
	}

	msg := err.Error()
	if !strings.Contains(msg, `ambiguous match for "pubg"`) {
		t.Fatalf("missing query in error message: %q", msg)
	}
	if !strings.Contains(msg, "pubg-mobile-id: PUBG Mobile ID") || !strings.Contains(msg, "pubg-mobile-gl: PUBG Mobile GL") {
		t.Fatalf("missing candidates in error message: %q", msg)
	}
}
