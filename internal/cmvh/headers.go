package cmvh

import (
	"fmt"
	"strings"

	"github.com/colimail/colimail-go/internal/errs"
)

// validateHeaderName allows only ASCII alphanumerics and hyphen, up to
// 76 characters — RFC 5322's folding column, conservatively enforced
// on the name alone.
func validateHeaderName(name string) error {
	if name == "" || len(name) > 76 {
		return &errs.FormatError{Op: "validate_header_name", Err: fmt.Errorf("invalid header name length: %q", name)}
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-') {
			return &errs.FormatError{Op: "validate_header_name", Err: fmt.Errorf("invalid character in header name: %q", c)}
		}
	}
	return nil
}

// sanitizeHeaderValue strips CR/LF (header injection) and rejects
// values over RFC 5322's 998-octet line limit.
func sanitizeHeaderValue(value string) (string, error) {
	if len(value) > 998 {
		return "", &errs.FormatError{Op: "sanitize_header_value", Err: fmt.Errorf("header value too long: %d chars", len(value))}
	}
	s := strings.ReplaceAll(value, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s, nil
}

// BuildHeaderLines renders h as ordered "Name: value" lines, ready to
// be injected before Content-Type. Order is fixed: Version, Address,
// Chain, Timestamp, HashAlgo, Signature, then the optional ENS,
// Reward, ProofURL fields if present.
func BuildHeaderLines(h Headers) ([]string, error) {
	type field struct {
		name  string
		value string
	}
	required := []field{
		{"X-CMVH-Version", h.Version},
		{"X-CMVH-Address", h.Address},
		{"X-CMVH-Chain", h.Chain},
		{"X-CMVH-Timestamp", h.Timestamp},
		{"X-CMVH-HashAlgo", h.HashAlgo},
		{"X-CMVH-Signature", h.Signature},
	}

	var lines []string
	for _, f := range required {
		if err := validateHeaderName(f.name); err != nil {
			return nil, err
		}
		v, err := sanitizeHeaderValue(f.value)
		if err != nil {
			return nil, err
		}
		lines = append(lines, f.name+": "+v)
	}

	optional := []field{
		{"X-CMVH-ENS", h.ENS},
		{"X-CMVH-Reward", h.Reward},
		{"X-CMVH-ProofURL", h.ProofURL},
	}
	for _, f := range optional {
		if f.value == "" {
			continue
		}
		if err := validateHeaderName(f.name); err != nil {
			return nil, err
		}
		v, err := sanitizeHeaderValue(f.value)
		if err != nil {
			return nil, err
		}
		lines = append(lines, f.name+": "+v)
	}

	return lines, nil
}
