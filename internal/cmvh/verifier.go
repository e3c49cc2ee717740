package cmvh

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Verify recovers the signer's address from headers.Signature over
// content's keccak-256 digest and compares it (case-insensitively)
// against headers.Address. It never returns an error: every failure
// mode is reported through VerificationResult.Error so that a corrupt
// or hostile message can't abort a sync/display pipeline.
func Verify(headers Headers, content Content) VerificationResult {
	sigHex := strings.TrimPrefix(headers.Signature, "0x")
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return invalidResult(fmt.Sprintf("invalid signature hex encoding: %v", err))
	}
	if err := ValidateSignatureBytes(sig); err != nil {
		return invalidResult(err.Error())
	}

	digest := HashKeccak256(content)

	// Ethereum layout is r‖s‖v; RecoverCompact wants decred's own
	// [recoveryByte, R, S] layout, so the bytes are reordered back.
	compact := make([]byte, signatureSize)
	compact[0] = sig[64]
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return invalidResult(fmt.Sprintf("failed to recover public key: %v", err))
	}

	recovered := AddressFromPublicKey(pub)
	claimed := strings.ToLower(headers.Address)
	isValid := strings.ToLower(recovered) == claimed

	result := VerificationResult{
		IsValid:   isValid,
		ENSName:   headers.ENS,
		Timestamp: headers.Timestamp,
		Chain:     headers.Chain,
	}
	if isValid {
		result.SignerAddress = headers.Address
	} else {
		result.Error = fmt.Sprintf("address mismatch: claimed %s, recovered %s", claimed, strings.ToLower(recovered))
	}
	return result
}

func invalidResult(errMsg string) VerificationResult {
	return VerificationResult{IsValid: false, Error: errMsg}
}
