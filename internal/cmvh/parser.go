package cmvh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/colimail/colimail-go/internal/errs"
)

// ParseHeaders extracts the X-CMVH-* header set from a raw RFC 5322
// header block, matching header names case-insensitively.
func ParseHeaders(rawHeaders string) (*Headers, error) {
	values := make(map[string]string)

	for _, line := range strings.Split(rawHeaders, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(strings.ToLower(key), "x-cmvh-") {
			continue
		}
		values[strings.ToLower(key)] = strings.TrimSpace(value)
	}

	required := func(name string) (string, error) {
		v, ok := values[strings.ToLower(name)]
		if !ok {
			return "", &errs.ProtocolError{Op: "parse_cmvh_headers", Err: fmt.Errorf("missing %s header", name)}
		}
		return v, nil
	}

	version, err := required("X-CMVH-Version")
	if err != nil {
		return nil, err
	}
	address, err := required("X-CMVH-Address")
	if err != nil {
		return nil, err
	}
	chain, err := required("X-CMVH-Chain")
	if err != nil {
		return nil, err
	}
	timestamp, err := required("X-CMVH-Timestamp")
	if err != nil {
		return nil, err
	}
	hashAlgo, err := required("X-CMVH-HashAlgo")
	if err != nil {
		return nil, err
	}
	signature, err := required("X-CMVH-Signature")
	if err != nil {
		return nil, err
	}

	return &Headers{
		Version:   version,
		Address:   address,
		Chain:     chain,
		Timestamp: timestamp,
		HashAlgo:  hashAlgo,
		Signature: signature,
		ENS:       values["x-cmvh-ens"],
		Reward:    values["x-cmvh-reward"],
		ProofURL:  values["x-cmvh-proofurl"],
	}, nil
}

// ValidateHeaders checks version, hash algorithm, address and
// signature formatting, and that the timestamp parses as an integer.
func ValidateHeaders(h Headers) error {
	if h.Version != "1" {
		return &errs.PolicyError{Op: "validate_cmvh_headers", Err: fmt.Errorf("unsupported version: %s", h.Version)}
	}
	if !strings.EqualFold(h.HashAlgo, "keccak256") {
		return &errs.PolicyError{Op: "validate_cmvh_headers", Err: fmt.Errorf("unsupported hash algorithm: %s", h.HashAlgo)}
	}

	addr := strings.ToLower(h.Address)
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 || !isHex(addr[2:]) {
		return &errs.FormatError{Op: "validate_cmvh_headers", Err: fmt.Errorf("invalid ethereum address format")}
	}

	sig := strings.ToLower(h.Signature)
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 || !isHex(sig[2:]) {
		return &errs.FormatError{Op: "validate_cmvh_headers", Err: fmt.Errorf("invalid signature format (expected 0x + 130 hex chars)")}
	}

	if _, err := strconv.ParseUint(h.Timestamp, 10, 64); err != nil {
		return &errs.FormatError{Op: "validate_cmvh_headers", Err: fmt.Errorf("invalid timestamp format")}
	}

	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
