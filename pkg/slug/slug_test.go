package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"Minha Empresa":        "minha-empresa",
		"  Alfa  Ltda  ":       "alfa-ltda",
		"ACME_Corp":            "acme-corp",
		"Contabilidade & Cia.": "contabilidade-cia",
		"---":                  "org",
		"":                     "org",
		"ja-um-slug":           "ja-um-slug",
	}
	for in, want := range cases {
		if got := Generate(in); got != want {
			t.Fatalf("Generate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateAlwaysValid(t *testing.T) {
	inputs := []string{"Minha Empresa", "__a__", "UPPER case", "1234", "a"}
	for _, in := range inputs {
		s := Generate(in)
		if !Valid(s) {
			t.Fatalf("Generate(%q) produced invalid slug %q", in, s)
		}
	}
}

func TestValid(t *testing.T) {
	valids := []string{"a", "ab", "minha-empresa", "a1-b2-c3", "1234"}
	for _, v := range valids {
		if !Valid(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}

	invalids := []string{
		"",
		"-lead",
		"trail-",
		"dois--dash",
		"Upper",
		"com espaco",
		"acentuação",
		strings.Repeat("a", 65),
	}
	for _, v := range invalids {
		if Valid(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}
