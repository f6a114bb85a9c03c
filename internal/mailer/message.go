package mailer

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Envelope is a composed message ready for a Transport
type Envelope struct {
	From      string
	To        []string
	MessageID string
	Body      []byte
}

// composeMessage builds a multipart/alternative message with a plain text
// and an HTML part. The Message-ID is generated here so the caller can
// report it even if the server assigns its own queue id.
func composeMessage(from, to *mail.Address, subject, htmlBody, textBody string, now time.Time) (*Envelope, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}
	messageID, err := h.MessageID()
	if err != nil {
		return nil, fmt.Errorf("failed to read message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}

	alt, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("failed to create alternative part: %w", err)
	}
	if err := writeInlinePart(alt, "text/plain", textBody); err != nil {
		return nil, err
	}
	if err := writeInlinePart(alt, "text/html", htmlBody); err != nil {
		return nil, err
	}
	if err := alt.Close(); err != nil {
		return nil, fmt.Errorf("failed to close alternative part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}

	return &Envelope{
		From:      from.Address,
		To:        []string{to.Address},
		MessageID: "<" + messageID + ">",
		Body:      buf.Bytes(),
	}, nil
}

func writeInlinePart(alt *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")
	w, err := alt.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}
