package cmvh

import "testing"

func TestNormalizeHTML_StripsOuterTagsAndCollapsesWhitespace(t *testing.T) {
	got := normalizeHTML("<html><body>  Hello   World  </body></html>")
	want := "Hello World"
	if got != want {
		t.Errorf("normalizeHTML() = %q, want %q", got, want)
	}
}

func TestNormalizeHTML_NormalizesLineEndingsAndCollapsesToSpaces(t *testing.T) {
	got := normalizeHTML("Line1\r\nLine2\rLine3\nLine4")
	want := "Line1 Line2 Line3 Line4"
	if got != want {
		t.Errorf("normalizeHTML() = %q, want %q", got, want)
	}
}

func TestNormalizeHTML_OnlyStripsMatchedWrapperPairs(t *testing.T) {
	// No matching </html> suffix, so the prefix must be left alone.
	got := normalizeHTML("<html>Hello")
	want := "<html>Hello"
	if got != want {
		t.Errorf("normalizeHTML() = %q, want %q", got, want)
	}
}

func TestAttachmentManifestHash_IsOrderIndependent(t *testing.T) {
	a := AttachmentManifestEntry{Filename: "a.pdf", ContentType: "application/pdf", Size: 3, ContentHash: HashAttachmentContent([]byte("abc"))}
	b := AttachmentManifestEntry{Filename: "b.png", ContentType: "image/png", Size: 3, ContentHash: HashAttachmentContent([]byte("xyz"))}

	h1 := attachmentManifestHash([]AttachmentManifestEntry{a, b})
	h2 := attachmentManifestHash([]AttachmentManifestEntry{b, a})
	if h1 != h2 {
		t.Errorf("attachmentManifestHash() is order-dependent: %q != %q", h1, h2)
	}
}

func TestAttachmentManifestHash_EmptyIsEmptyString(t *testing.T) {
	if got := attachmentManifestHash(nil); got != "" {
		t.Errorf("attachmentManifestHash(nil) = %q, want empty string", got)
	}
}

func TestExtendedFingerprint_IsStable(t *testing.T) {
	c := Content{Subject: "S", From: "a@example.com", To: "b@example.com", Cc: "", Body: "<p>hi</p>"}
	got1 := ExtendedFingerprint(c, "123", nil)
	got2 := ExtendedFingerprint(c, "123", nil)
	if got1 != got2 {
		t.Error("ExtendedFingerprint() is not deterministic for identical inputs")
	}
}
