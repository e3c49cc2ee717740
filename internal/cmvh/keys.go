package cmvh

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"

	"github.com/colimail/colimail-go/internal/errs"
)

// ParsePrivateKey decodes a hex-encoded secp256k1 private key,
// tolerating an optional "0x" prefix.
func ParsePrivateKey(hexKey string) (*secp256k1.PrivateKey, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, &errs.FormatError{Op: "parse_private_key", Err: err}
	}
	if len(b) != 32 {
		return nil, &errs.FormatError{Op: "parse_private_key", Err: fmt.Errorf("expected 32 bytes, got %d", len(b))}
	}
	return secp256k1.PrivKeyFromBytes(b), nil
}

// AddressFromPublicKey derives the Ethereum-style address for an
// uncompressed secp256k1 public key: keccak256 of the 64 coordinate
// bytes (the 0x04 prefix stripped), lower 20 bytes, "0x"+lowercase hex.
func AddressFromPublicKey(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed() // 0x04 || X(32) || Y(32)
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:])
	digest := h.Sum(nil)
	return "0x" + hex.EncodeToString(digest[12:])
}

// AddressFromPrivateKey derives the address corresponding to priv.
func AddressFromPrivateKey(priv *secp256k1.PrivateKey) string {
	return AddressFromPublicKey(priv.PubKey())
}
