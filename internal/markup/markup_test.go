package markup

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{3a:hello}", "hello"},
		{"plain text", "plain text"},
		{"", ""},
		{"{1:私}は{2b:学生}です", "私は学生です"},
		{"{12:a}{13:b}", "ab"},
		{"{a:not a span}", "{a:not a span}"},
		{"{3A:upper letter}", "{3A:upper letter}"},
		{"{3ab:two letters}", "{3ab:two letters}"},
		{"{3:unclosed", "{3:unclosed"},
		{"{1:{2:nested}}", "nested"},
		{"{{1:a}}", "{a}"},
		{"{4:}", ""},
		{"braces {} stay", "braces {} stay"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"{3a:hello} world",
		"{1:{2:nested}}",
		"日本語の{5:文}",
		"{x:y} {1:z}",
		"{{1:a}}",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSpans(t *testing.T) {
	got := Spans("{1:私}は{2b:学生}です")
	want := []Span{{Key: "1", Text: "私"}, {Key: "2b", Text: "学生"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Spans = %+v, want %+v", got, want)
	}
	if Spans("none") != nil {
		t.Fatal("expected nil for text without spans")
	}
}
