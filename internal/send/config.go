// Package send is the SendPipeline (spec.md §4.8): attachment-ceiling
// enforcement, CMVH-signed message assembly, and SMTP delivery with
// implicit-TLS/STARTTLS dialing and password or XOAUTH2 SASL auth.
// Grounded on internal/email/smtp.go (dial shape, kept and
// generalized to a pluggable auth mechanism) and internal/cmvh for
// the signed-message and attachment-policy steps.
package send

// Config describes how to reach one account's SMTP server. Port 465
// is treated as implicit TLS; any other port uses STARTTLS.
type Config struct {
	Host string
	Port int
}

// ImplicitTLS reports whether c.Port calls for a TLS connection from
// the first byte (spec.md §4.8 step 4), rather than a plaintext
// connection upgraded via STARTTLS.
func (c Config) ImplicitTLS() bool {
	return c.Port == 465
}

// Attachment is one file to include in the outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is everything SendPipeline needs to assemble and deliver
// one outgoing email.
type Message struct {
	From        string
	To          []string
	Cc          []string
	Subject     string
	BodyHTML    string
	Attachments []Attachment

	// SignerKeyHex is the sender's secp256k1 private key, hex-encoded,
	// used to compute the CMVH header set.
	SignerKeyHex string
	// Chain is the CMVH chain identifier to embed in the signature.
	Chain string
}
