package cmvh

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/colimail/colimail-go/internal/errs"
)

// signatureSize is the Ethereum-style compact signature length: r(32)
// + s(32) + v(1).
const signatureSize = 65

// Sign computes the CMVH header set for content, signing the raw
// keccak-256 digest of its Fingerprint with privateKeyHex (hex, with
// or without "0x" prefix). The signature layout is r‖s‖v where
// v = 27 + recovery_id — no EIP-191 message prefix is applied, so the
// digest signed matches what an on-chain ECDSA.recover call over the
// same hash expects.
func Sign(privateKeyHex string, content Content, chain string) (*Headers, error) {
	priv, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	address := AddressFromPrivateKey(priv)
	digest := HashKeccak256(content)

	// SignCompact's own layout is [recoveryByte, R, S]; Ethereum wants
	// r‖s‖v with v last, so the bytes are reordered below.
	compact := ecdsa.SignCompact(priv, digest, false)
	sig := make([]byte, signatureSize)
	copy(sig[0:32], compact[1:33])
	copy(sig[32:64], compact[33:65])
	sig[64] = compact[0]

	return &Headers{
		Version:   "1",
		Address:   address,
		Chain:     chain,
		Timestamp: strconv.FormatInt(time.Now().Unix(), 10),
		HashAlgo:  "keccak256",
		Signature: "0x" + hex.EncodeToString(sig),
	}, nil
}

// ValidateSignatureBytes checks that a parsed signature has the
// expected length and a recovery byte of 27 or 28 (or their 4-shifted
// compressed-key counterparts are rejected — CMVH always signs with
// an uncompressed-style recovery byte).
func ValidateSignatureBytes(sig []byte) error {
	if len(sig) != signatureSize {
		return &errs.FormatError{Op: "validate_signature", Err: fmt.Errorf("expected %d bytes, got %d", signatureSize, len(sig))}
	}
	v := sig[64]
	if v != 27 && v != 28 {
		return &errs.FormatError{Op: "validate_signature", Err: fmt.Errorf("invalid recovery byte: %d", v)}
	}
	return nil
}
