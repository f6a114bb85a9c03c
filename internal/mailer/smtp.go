package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport delivers composed messages. SMTPTransport is the production
// implementation; tests substitute their own.
type Transport interface {
	Send(ctx context.Context, env *Envelope) error
	Verify(ctx context.Context) error
}

// SMTPTransport speaks SMTP to a single relay. Port 465 uses implicit TLS,
// anything else upgrades with STARTTLS when the server offers it.
type SMTPTransport struct {
	cfg       Config
	tlsConfig *tls.Config
	logger    *slog.Logger
}

func NewSMTPTransport(cfg Config, logger *slog.Logger) *SMTPTransport {
	return &SMTPTransport{
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		logger:    logger,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, env *Envelope) error {
	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.SendMail(env.From, env.To, bytes.NewReader(env.Body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	// the relay accepted the message with its reply to DATA; a failed QUIT
	// must not turn that into a retry and a duplicate email
	if err := client.Quit(); err != nil {
		t.logger.Debug("smtp_quit_failed", "message_id", env.MessageID, "error", err)
	}
	return nil
}

// Verify dials, negotiates TLS and authenticates without sending anything
func (t *SMTPTransport) Verify(ctx context.Context) error {
	client, err := t.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return fmt.Errorf("smtp noop: %w", err)
	}
	return client.Quit()
}

func (t *SMTPTransport) connect(ctx context.Context) (*smtp.Client, error) {
	addr := t.cfg.addr()

	var conn net.Conn
	var err error
	if t.cfg.Port == 465 {
		dialer := &tls.Dialer{Config: t.tlsConfig}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	} else {
		var dialer net.Dialer
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	// the whole conversation shares the caller's deadline
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(t.cfg.Timeout))
	}

	client := smtp.NewClient(conn)

	if t.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(t.tlsConfig); err != nil {
				client.Close()
				return nil, fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if t.cfg.Username != "" {
		auth := sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}

	return client, nil
}
