// Package cmvh implements Cryptographic Mail Verification Headers:
// secp256k1/keccak-256 signing and verification of email metadata, the
// X-CMVH-* header set, per-provider attachment size ceilings, and a
// 90-day verification result cache backed by mailstore.Store.
package cmvh

// Headers is the parsed or to-be-emitted set of X-CMVH-* header
// values for one message.
type Headers struct {
	Version   string
	Address   string
	Chain     string
	Timestamp string
	HashAlgo  string
	Signature string
	ENS       string
	Reward    string
	ProofURL  string
}

// Content is the metadata a CMVH signature is computed over. Body is
// carried for the reserved extended canonical form only; the
// production signature never hashes it (see canonicalize.go).
type Content struct {
	Subject string
	From    string
	To      string
	Cc      string
	Body    string
}

// VerificationResult is the outcome of Verify.
type VerificationResult struct {
	IsValid       bool
	SignerAddress string
	ENSName       string
	Timestamp     string
	Chain         string
	Error         string
}
