package send

import (
	"context"
	"strings"

	"github.com/colimail/colimail-go/internal/cmvh"
	"github.com/colimail/colimail-go/internal/imapsession"
)

// Pipeline implements spec.md §4.8's five-step SendPipeline.
type Pipeline struct {
	cfg  Config
	auth imapsession.AuthMethod
}

// NewPipeline builds a SendPipeline for one account's SMTP settings.
// Auth refresh (step 1) is the caller's responsibility — auth is
// captured fresh at NewPipeline time and used for this Send call.
func NewPipeline(cfg Config, auth imapsession.AuthMethod) *Pipeline {
	return &Pipeline{cfg: cfg, auth: auth}
}

// Send runs the full pipeline: attachment ceiling, CMVH signing,
// message assembly, SMTP connect, and delivery.
func (p *Pipeline) Send(ctx context.Context, msg Message) error {
	sizes := make([]int64, len(msg.Attachments))
	for i, a := range msg.Attachments {
		sizes[i] = int64(len(a.Data))
	}
	if err := cmvh.ValidateAttachmentSizes(msg.From, sizes); err != nil {
		return err
	}

	headers, err := cmvh.Sign(msg.SignerKeyHex, cmvh.Content{
		Subject: msg.Subject,
		From:    msg.From,
		To:      strings.Join(msg.To, ", "),
		Cc:      strings.Join(msg.Cc, ", "),
	}, msg.Chain)
	if err != nil {
		return err
	}

	attachments := make([]cmvh.OutgoingAttachment, len(msg.Attachments))
	for i, a := range msg.Attachments {
		attachments[i] = cmvh.OutgoingAttachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		}
	}

	raw, err := cmvh.BuildSignedMessage(
		msg.From,
		strings.Join(msg.To, ", "),
		strings.Join(msg.Cc, ", "),
		msg.Subject,
		msg.BodyHTML,
		*headers,
		attachments,
	)
	if err != nil {
		return err
	}

	recipients := expandRecipients(msg.To, msg.Cc)
	return deliver(ctx, p.cfg, p.auth, msg.From, recipients, raw)
}
