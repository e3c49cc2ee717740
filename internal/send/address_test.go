package send

import (
	"reflect"
	"testing"
)

func TestExtractAddress_PrefersAngleBracketContent(t *testing.T) {
	cases := map[string]string{
		"Jane Doe <jane@example.com>": "jane@example.com",
		"jane@example.com":            "jane@example.com",
		"  <spaced@example.com>  ":    "spaced@example.com",
	}
	for in, want := range cases {
		if got := extractAddress(in); got != want {
			t.Errorf("extractAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandRecipients_DedupesAcrossListsAndCommaJoinedEntries(t *testing.T) {
	to := []string{"Jane <jane@example.com>, John <john@example.com>"}
	cc := []string{"jane@example.com", "carol@example.com"}

	got := expandRecipients(to, cc)
	want := []string{"jane@example.com", "john@example.com", "carol@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandRecipients() = %v, want %v", got, want)
	}
}

func TestExpandRecipients_SkipsEmptyTokens(t *testing.T) {
	got := expandRecipients([]string{"jane@example.com, "}, nil)
	want := []string{"jane@example.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandRecipients() = %v, want %v", got, want)
	}
}
