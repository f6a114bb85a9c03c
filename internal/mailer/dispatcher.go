package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	"golang.org/x/time/rate"
)

var errNoRecipient = errors.New("recipient address is empty")

// Result describes an accepted message
type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// Dispatcher renders stock alert emails and hands them to a Transport
type Dispatcher struct {
	cfg       Config
	transport Transport
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time

	checkMu   sync.Mutex
	checkedAt time.Time
	reachable bool
}

func NewDispatcher(cfg Config, transport Transport, logger *slog.Logger) (*Dispatcher, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if transport == nil {
		transport = NewSMTPTransport(cfg, logger)
	}
	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (d *Dispatcher) SendLowStockAlert(ctx context.Context, to, vendorName string, product models.Product) (Result, error) {
	return d.send(ctx, lowStockTemplate, to, vendorName, product)
}

func (d *Dispatcher) SendOutOfStockAlert(ctx context.Context, to, vendorName string, product models.Product) (Result, error) {
	return d.send(ctx, outOfStockTemplate, to, vendorName, product)
}

// TestConnection reports whether the relay accepts our connection and credentials
func (d *Dispatcher) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if err := d.transport.Verify(ctx); err != nil {
		d.logger.Warn("mail_transport_unreachable", "host", d.cfg.Host, "port", d.cfg.Port, "error", err)
		return false
	}
	return true
}

// Reachable is TestConnection with the answer reused for maxAge, so frequent
// health checks do not open a relay session each time
func (d *Dispatcher) Reachable(ctx context.Context, maxAge time.Duration) bool {
	d.checkMu.Lock()
	defer d.checkMu.Unlock()

	if !d.checkedAt.IsZero() && d.now().Sub(d.checkedAt) < maxAge {
		return d.reachable
	}
	d.reachable = d.TestConnection(ctx)
	d.checkedAt = d.now()
	return d.reachable
}

func (d *Dispatcher) send(ctx context.Context, tmpl alertTemplate, to, vendorName string, product models.Product) (Result, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return Result{}, &DispatchError{Kind: KindRecipient, To: to, Err: errNoRecipient}
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return Result{}, &DispatchError{Kind: KindRecipient, To: to, Err: err}
	}
	if vendorName == "" {
		vendorName = "Vendor"
	}
	rcpt.Name = vendorName

	now := d.now()
	subject, html, text, err := tmpl.render(newAlertView(vendorName, product, d.cfg.inventoryURL(), now))
	if err != nil {
		return Result{}, &DispatchError{Kind: KindRender, To: to, Err: err}
	}

	from := &mail.Address{Name: d.cfg.FromName, Address: d.cfg.From}
	env, err := composeMessage(from, rcpt, subject, html, text, now)
	if err != nil {
		return Result{}, &DispatchError{Kind: KindRender, To: to, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if err := d.limiter.Wait(ctx); err != nil {
		return Result{}, &DispatchError{Kind: KindTransport, To: to, Err: fmt.Errorf("rate limit wait: %w", err)}
	}
	if err := d.transport.Send(ctx, env); err != nil {
		return Result{}, &DispatchError{Kind: KindTransport, To: to, Err: err}
	}

	d.logger.Info("stock_alert_email_sent", "to", to, "product_id", product.ID, "message_id", env.MessageID)
	return Result{Success: true, MessageID: env.MessageID}, nil
}
