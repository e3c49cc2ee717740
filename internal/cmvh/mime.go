package cmvh

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// OutgoingAttachment is a file to be base64-encoded into the outgoing
// MIME message.
type OutgoingAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// BuildSignedMessage assembles a complete RFC 5322 message with the
// CMVH header block injected immediately before Content-Type, exactly
// as the original composer does. Address formatting goes through
// go-message/mail so that display-name quoting follows RFC 5322;
// everything after MIME-Version is hand-assembled because the
// required header position and the reserved soft-wrap column aren't
// expressible through mail.Writer's own Content-Type management.
func BuildSignedMessage(from, to, cc, subject, bodyHTML string, headers Headers, attachments []OutgoingAttachment) ([]byte, error) {
	var b strings.Builder

	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("parse from address %q: %w", from, err)
	}
	toAddrs, err := parseAddressListString(to)
	if err != nil {
		return nil, fmt.Errorf("parse to addresses: %w", err)
	}

	fmt.Fprintf(&b, "From: %s\r\n", fromAddr.String())
	fmt.Fprintf(&b, "To: %s\r\n", joinAddresses(toAddrs))
	if strings.TrimSpace(cc) != "" {
		ccAddrs, err := parseAddressListString(cc)
		if err != nil {
			return nil, fmt.Errorf("parse cc addresses: %w", err)
		}
		fmt.Fprintf(&b, "Cc: %s\r\n", joinAddresses(ccAddrs))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	lines, err := BuildHeaderLines(headers)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}

	if len(attachments) > 0 {
		boundary := uuid.NewString()
		fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", boundary)

		fmt.Fprintf(&b, "--%s\r\n", boundary)
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		b.WriteString(encodeQuotedPrintable(bodyHTML))
		b.WriteString("\r\n\r\n")

		for _, a := range attachments {
			fmt.Fprintf(&b, "--%s\r\n", boundary)
			fmt.Fprintf(&b, "Content-Type: %s\r\n", a.ContentType)
			fmt.Fprintf(&b, "Content-Disposition: attachment; filename=\"%s\"\r\n", a.Filename)
			b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
			b.WriteString(base64.StdEncoding.EncodeToString(a.Data))
			b.WriteString("\r\n\r\n")
		}

		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	} else {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		b.WriteString(encodeQuotedPrintable(bodyHTML))
	}

	return []byte(b.String()), nil
}

func parseAddressListString(s string) ([]*mail.Address, error) {
	var addrs []*mail.Address
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, err := mail.ParseAddress(part)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func joinAddresses(addrs []*mail.Address) string {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.String()
	}
	return strings.Join(strs, ", ")
}
