package sender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// SMTPTransport delivers messages over SMTP with PLAIN auth. Port 465 uses
// implicit TLS, everything else STARTTLS.
type SMTPTransport struct{}

func NewSMTPTransport() *SMTPTransport {
	return &SMTPTransport{}
}

func (t *SMTPTransport) Deliver(ctx context.Context, msg Message, creds Credentials) (string, error) {
	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), domainOf(msg.From))

	raw, err := buildMIME(msg, messageID)
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", creds.Host, creds.Port)
	auth := sasl.NewPlainClient("", creds.Username, creds.Password)

	done := make(chan error, 1)
	go func() {
		if creds.Port == 465 {
			done <- smtp.SendMailTLS(addr, auth, msg.From, []string{msg.To}, bytes.NewReader(raw))
			return
		}
		done <- smtp.SendMail(addr, auth, msg.From, []string{msg.To}, bytes.NewReader(raw))
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", err
		}
		return messageID, nil
	}
}

func buildMIME(msg Message, messageID string) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(msg.Subject)
	h.SetMessageID(messageID)
	h.SetAddressList("From", []*mail.Address{{Name: msg.FromName, Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}

	var textHeader mail.InlineHeader
	textHeader.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := tw.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(pw, msg.Body); err != nil {
		return nil, err
	}
	pw.Close()

	if msg.HTMLBody != "" {
		var htmlHeader mail.InlineHeader
		htmlHeader.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		hw, err := tw.CreatePart(htmlHeader)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(hw, msg.HTMLBody); err != nil {
			return nil, err
		}
		hw.Close()
	}

	tw.Close()
	mw.Close()
	return buf.Bytes(), nil
}

func domainOf(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return "localhost"
}

var _ Transport = (*SMTPTransport)(nil)
