package catalog_test

import (
	"reflect"
	"testing"

	"reelsync/internal/catalog"
)

func TestNaturalKeyDeterminism(t *testing.T) {
	variants := []string{"José  García", " jose garcia ", "JOSE GARCIA", "Jose\tGarcia"}
	want := "jose garcia"
	for _, variant := range variants {
		if got := catalog.NaturalKey(variant); got != want {
			t.Fatalf("NaturalKey(%q) = %q, want %q", variant, got, want)
		}
	}
}

func TestNaturalKeyEdgeCases(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t ", ""},
		{"zero width space", "Anna​Lee", "annalee"},
		{"non breaking space", "Anna Lee", "anna lee"},
		{"polish stroke survives lowering", "Łukasz", "łukasz"},
		{"combining marks dropped", "Zoë Saldaña", "zoe saldana"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := catalog.NaturalKey(tc.input); got != tc.want {
				t.Fatalf("NaturalKey(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSplitMultiValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "Anna Lee, Bob Chen", []string{"Anna Lee", "Bob Chen"}},
		{"drops unknown sentinel", "unknown, Anna Lee, Unknown", []string{"Anna Lee"}},
		{"drops empties", "Anna Lee,, ,Bob Chen,", []string{"Anna Lee", "Bob Chen"}},
		{"blank input", "   ", nil},
		{"single token", "Documentaries", []string{"Documentaries"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := catalog.SplitMultiValue(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitMultiValue(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFirstToken(t *testing.T) {
	if got := catalog.FirstToken("anna marie lee"); got != "anna" {
		t.Fatalf("FirstToken = %q, want %q", got, "anna")
	}
	if got := catalog.FirstToken(""); got != "" {
		t.Fatalf("FirstToken of empty input = %q, want empty", got)
	}
}
