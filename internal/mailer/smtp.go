package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	appErrors "github.com/unclebandit/mailmerge-backend/internal/errors"
)

// SMTPSender delivers messages through a plain SMTP(+AUTH) endpoint, the
// single outbound transport of the system.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return appErrors.NewPermanentSend(err)
	}

	from := msg.From
	if from == "" {
		from = s.From
	}

	payload, err := buildMIME(from, msg)
	if err != nil {
		return appErrors.NewPermanentSend(err)
	}

	addr := net.JoinHostPort(s.Host, s.Port)
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	if err := smtp.SendMail(addr, auth, from, []string{msg.To}, payload); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps an SMTP error onto the transient/permanent taxonomy.
// Only 421 ("service not available, closing transmission channel") is
// treated as retryable.
func classify(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == 421 {
		return appErrors.NewTransientSend(err)
	}
	if strings.HasPrefix(err.Error(), "421") {
		return appErrors.NewTransientSend(err)
	}
	return appErrors.NewPermanentSend(err)
}

// buildMIME assembles the raw RFC 5322 message: a bare HTML body when there
// are no attachments, multipart/mixed with base64 parts otherwise.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
		buf.WriteString("\r\n")
		buf.WriteString(msg.HTMLBody)
		return buf.Bytes(), nil
	}

	w := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", w.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/html; charset=\"UTF-8\"")
	part, err := w.CreatePart(bodyHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, err
	}

	for _, att := range msg.Attachments {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", "application/octet-stream")
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
		part, err := w.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(att.Content)
		if _, err := part.Write([]byte(encoded)); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ Sender = (*SMTPSender)(nil)
