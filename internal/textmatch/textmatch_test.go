package textmatch

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Juan Pérez", "juan perez"},
		{"JOSÉ García", "jose garcia"},
		{"Ñandú", "nandu"},
		{"François Müller", "francois muller"},
		{"Straße", "strasse"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"+54 9 11-2233", "549112233", true},
		{"5491122334455", "5491122334455", true},
		{"juan", "", false},
		{"12a", "", false},
		{"+ -", "", false},
	}

	for _, tt := range tests {
		got, ok := Digits(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Digits(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "juan", "juan perez", "ñ"} {
		if got := Similarity(s, s); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestSimilarityEmpty(t *testing.T) {
	for _, s := range []string{"a", "juan", "juan perez"} {
		if got := Similarity(s, ""); got != 0 {
			t.Errorf("Similarity(%q, \"\") = %v, want 0", s, got)
		}
		if got := Similarity("", s); got != 0 {
			t.Errorf("Similarity(\"\", %q) = %v, want 0", s, got)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"juan", "jaun"},
		{"maria", "mario"},
		{"juan", "juan perez"},
		{"kitten", "sitting"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		if a, b := Similarity(p[0], p[1]), Similarity(p[1], p[0]); a != b {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], a, b)
		}
		if a, b := TokenSortSimilarity(p[0], p[1]), TokenSortSimilarity(p[1], p[0]); a != b {
			t.Errorf("TokenSortSimilarity not symmetric for %q/%q: %v vs %v", p[0], p[1], a, b)
		}
	}
}

func TestSimilarityValues(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"juan", "juan perez", ContainmentScore},
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"juan", "jaun", 0.5},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"pérez", "perez", 1},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTokenSortSimilarity(t *testing.T) {
	if got := TokenSortSimilarity("perez juan", "juan perez"); got != 1 {
		t.Errorf("reordered tokens = %v, want 1", got)
	}
	if got := TokenSortSimilarity("juan", "jaun"); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("TokenSortSimilarity(juan, jaun) = %v, want 0.75", got)
	}
	if got := TokenSortSimilarity("garcia juan maria", "maria juan garcia"); got != 1 {
		t.Errorf("three reordered tokens = %v, want 1", got)
	}
	if got := TokenSortSimilarity("maria", "mario"); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("TokenSortSimilarity(maria, mario) = %v, want 0.8", got)
	}
	if got := TokenSortSimilarity("juan", ""); got != 0 {
		t.Errorf("TokenSortSimilarity(juan, \"\") = %v, want 0", got)
	}
}

func TestScorerFor(t *testing.T) {
	for _, kind := range []ScorerKind{ScorerLevenshtein, ScorerTokenSort, ""} {
		if _, err := ScorerFor(kind); err != nil {
			t.Errorf("ScorerFor(%q) error = %v", kind, err)
		}
	}
	if _, err := ScorerFor("soundex"); err == nil {
		t.Error("ScorerFor(soundex) expected error")
	}
}
