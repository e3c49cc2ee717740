package cmvh

import (
	"fmt"
	"strings"

	"github.com/colimail/colimail-go/internal/errs"
)

const megabyte = 1024 * 1024

// defaultAttachmentLimit applies to any sender domain not listed
// below.
const defaultAttachmentLimit = 10 * megabyte

// attachmentLimits are per-provider total-attachment-size ceilings, in
// bytes, transcribed from the original provider table.
var attachmentLimits = map[string]int64{
	"gmail.com":      25 * megabyte,
	"googlemail.com": 25 * megabyte,

	"outlook.com": 20 * megabyte,
	"hotmail.com": 20 * megabyte,
	"live.com":    20 * megabyte,

	"yahoo.com":    25 * megabyte,
	"yahoo.co.uk":  25 * megabyte,
	"yahoo.ca":     25 * megabyte,

	"icloud.com": 20 * megabyte,
	"me.com":     20 * megabyte,
	"mac.com":    20 * megabyte,

	"aol.com": 25 * megabyte,

	"protonmail.com": 25 * megabyte,
	"proton.me":      25 * megabyte,

	"zoho.com": 20 * megabyte,

	"qq.com": 50 * megabyte,

	"163.com":  50 * megabyte,
	"126.com":  50 * megabyte,
	"yeah.net": 50 * megabyte,

	"sina.com": 50 * megabyte,
	"sina.cn":  50 * megabyte,
}

// LimitForEmail returns the attachment size ceiling, in bytes, for the
// sender's address domain, or defaultAttachmentLimit if the domain is
// not recognized.
func LimitForEmail(email string) int64 {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return defaultAttachmentLimit
	}
	if limit, ok := attachmentLimits[strings.ToLower(domain)]; ok {
		return limit
	}
	return defaultAttachmentLimit
}

// ValidateAttachmentSizes enforces the sender's provider ceiling
// against the sum of attachment sizes, before any SMTP connection is
// attempted.
func ValidateAttachmentSizes(senderEmail string, sizes []int64) error {
	limit := LimitForEmail(senderEmail)

	var total int64
	for _, s := range sizes {
		total += s
	}

	if total > limit {
		return &errs.PolicyError{Op: "validate_attachment_sizes", Err: fmt.Errorf(
			"total attachment size (%.2f MB) exceeds the limit for your email provider (%.2f MB)",
			float64(total)/megabyte, float64(limit)/megabyte,
		)}
	}
	return nil
}
