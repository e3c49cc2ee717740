package codec

import (
	"testing"
)

func TestDecodeEncodedWords_PlainText(t *testing.T) {
	got := DecodeEncodedWords("no encoding here")
	want := "no encoding here"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeEncodedWords_QEncoding(t *testing.T) {
	got := DecodeEncodedWords("=?UTF-8?Q?Hello_World?=")
	want := "Hello World"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeEncodedWords_BEncoding(t *testing.T) {
	// base64("Hello") = "SGVsbG8="
	got := DecodeEncodedWords("=?UTF-8?B?SGVsbG8=?=")
	want := "Hello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeEncodedWords_AdjacentWordsDropWhitespace(t *testing.T) {
	got := DecodeEncodedWords("=?UTF-8?Q?Hello?= =?UTF-8?Q?World?=")
	want := "HelloWorld"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeEncodedWords_MalformedPassesThrough(t *testing.T) {
	in := "=?broken word"
	got := DecodeEncodedWords(in)
	if got != in {
		t.Errorf("got %q, want unchanged %q", got, in)
	}
}

func TestDecodeEncodedWords_MixedLiteralAndEncoded(t *testing.T) {
	got := DecodeEncodedWords("Subject: =?UTF-8?Q?Hi?= there")
	want := "Subject: Hi there"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecodeBytes_ValidUTF8(t *testing.T) {
	got := DecodeBytes([]byte("héllo"))
	if got != "héllo" {
		t.Errorf("got %q, want %q", got, "héllo")
	}
}

func TestDecodeBytes_InvalidUTF8Lossy(t *testing.T) {
	got := DecodeBytes([]byte{0xff, 0xfe, 'a'})
	if got == "" {
		t.Error("expected non-empty lossy decode")
	}
}

func TestParseDate_RFC2822(t *testing.T) {
	got := ParseDate("Mon, 02 Jan 2006 15:04:05 -0700", "", nil)
	if got != 1136239445 {
		t.Errorf("got %d, want 1136239445", got)
	}
}

func TestParseDate_RFC3339(t *testing.T) {
	got := ParseDate("2006-01-02T15:04:05Z", "", nil)
	if got != 1136214245 {
		t.Errorf("got %d, want 1136214245", got)
	}
}

func TestParseDate_FallsBackToInternalDate(t *testing.T) {
	got := ParseDate("not a date", "Mon, 02 Jan 2006 15:04:05 -0700", nil)
	if got != 1136239445 {
		t.Errorf("got %d, want 1136239445", got)
	}
}

func TestParseDate_NeverFails(t *testing.T) {
	got := ParseDate("garbage", "also garbage", nil)
	if got <= 0 {
		t.Errorf("expected a positive fallback timestamp, got %d", got)
	}
}

func TestHasAttachment_DetectsAttachmentToken(t *testing.T) {
	if !HasAttachment(`BodyStructure { disposition: "attachment" }`) {
		t.Error("expected attachment token to be detected")
	}
}

func TestHasAttachment_DetectsFilenameToken(t *testing.T) {
	if !HasAttachment(`params: [("filename", "report.pdf")]`) {
		t.Error("expected filename token to be detected")
	}
}

func TestHasAttachment_CaseInsensitive(t *testing.T) {
	if !HasAttachment("ATTACHMENT") {
		t.Error("expected case-insensitive match")
	}
}

func TestHasAttachment_NoMatch(t *testing.T) {
	if HasAttachment(`BodyStructure { mime: "text/plain" }`) {
		t.Error("expected no match for plain body structure")
	}
}
