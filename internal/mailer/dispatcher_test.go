package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransport mocks the Transport interface
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(ctx context.Context, env *Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *MockTransport) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestDispatcher(t *testing.T, transport Transport) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(Config{
		Host:       "smtp.test",
		Port:       587,
		From:       "alerts@agricorus.test",
		BaseURL:    "https://shop.example/",
		Timeout:    time.Second,
		RatePerSec: 100,
	}, transport, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	d.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return d
}

type parsedMail struct {
	subject string
	from    string
	to      string
	text    string
	html    string
}

func parseEnvelope(t *testing.T, env *Envelope) parsedMail {
	t.Helper()
	mr, err := gomail.CreateReader(bytes.NewReader(env.Body))
	require.NoError(t, err)

	var out parsedMail
	out.subject, err = mr.Header.Subject()
	require.NoError(t, err)
	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	out.from = from[0].String()
	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	out.to = to[0].Address

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*gomail.InlineHeader)
		require.True(t, ok)
		ct, _, err := h.ContentType()
		require.NoError(t, err)
		body, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		switch ct {
		case "text/plain":
			out.text = string(body)
		case "text/html":
			out.html = string(body)
		}
	}
	return out
}

func TestSendLowStockAlert_RendersAndSends(t *testing.T) {
	transport := new(MockTransport)
	var sent *Envelope
	transport.On("Send", mock.Anything, mock.AnythingOfType("*mailer.Envelope")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*Envelope) }).
		Return(nil)

	d := newTestDispatcher(t, transport)
	product := models.Product{ID: "P1", Name: "Tomatoes", Price: 45.5, Stock: 3}

	result, err := d.SendLowStockAlert(context.Background(), "v1@farm.example", "Green Acres", product)

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, sent)
	assert.Equal(t, sent.MessageID, result.MessageID)
	assert.Equal(t, []string{"v1@farm.example"}, sent.To)
	assert.Equal(t, "alerts@agricorus.test", sent.From)

	msg := parseEnvelope(t, sent)
	assert.Equal(t, "⚠️ Low Stock Alert: Tomatoes", msg.subject)
	assert.Equal(t, `"AgriCorus Marketplace" <alerts@agricorus.test>`, msg.from)
	assert.Equal(t, "v1@farm.example", msg.to)
	assert.Contains(t, msg.html, "Dear Green Acres,")
	assert.Contains(t, msg.html, "<span class=\"detail-value\">N/A</span>")
	assert.Contains(t, msg.html, "3 units")
	assert.Contains(t, msg.html, "10 units")
	assert.Contains(t, msg.html, "₹45.50")
	assert.Contains(t, msg.html, `href="https://shop.example/vendor/inventory"`)
	assert.Contains(t, msg.html, "© 2025 AgriCorus")
	assert.Contains(t, msg.text, "Alert Threshold: 10 units")
	transport.AssertExpectations(t)
}

func TestSendOutOfStockAlert_RendersAndSends(t *testing.T) {
	transport := new(MockTransport)
	var sent *Envelope
	transport.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*Envelope) }).
		Return(nil)

	d := newTestDispatcher(t, transport)
	product := models.Product{ID: "P2", Name: "Basmati Rice", Category: "Grains", Price: 120, Stock: 0}

	_, err := d.SendOutOfStockAlert(context.Background(), "v1@farm.example", "", product)
	require.NoError(t, err)

	msg := parseEnvelope(t, sent)
	assert.Equal(t, "🚨 URGENT: Basmati Rice is Out of Stock", msg.subject)
	assert.Contains(t, msg.html, "Dear Vendor,")
	assert.Contains(t, msg.html, "Grains")
	assert.Contains(t, msg.html, "0 units (OUT OF STOCK)")
	assert.Contains(t, msg.html, "Restock Now")
	assert.NotContains(t, msg.html, "Alert Threshold")
}

func TestSend_EscapesProductName(t *testing.T) {
	transport := new(MockTransport)
	var sent *Envelope
	transport.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*Envelope) }).
		Return(nil)

	d := newTestDispatcher(t, transport)
	_, err := d.SendLowStockAlert(context.Background(), "v1@farm.example", "V", models.Product{Name: "<b>Okra</b>", Stock: 1})
	require.NoError(t, err)

	msg := parseEnvelope(t, sent)
	assert.NotContains(t, msg.html, "<b>Okra</b>")
	assert.Contains(t, msg.html, "&lt;b&gt;Okra&lt;/b&gt;")
}

func TestSend_RecipientErrors(t *testing.T) {
	transport := new(MockTransport)
	d := newTestDispatcher(t, transport)

	for _, to := range []string{"", "   ", "not-an-address"} {
		_, err := d.SendLowStockAlert(context.Background(), to, "V", models.Product{Name: "Okra"})

		var derr *DispatchError
		require.ErrorAs(t, err, &derr, "to=%q", to)
		assert.Equal(t, KindRecipient, derr.Kind)
	}
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSend_TransportFailureIsReturned(t *testing.T) {
	transport := new(MockTransport)
	boom := errors.New("connection refused")
	transport.On("Send", mock.Anything, mock.Anything).Return(boom)

	d := newTestDispatcher(t, transport)
	result, err := d.SendOutOfStockAlert(context.Background(), "v1@farm.example", "V", models.Product{Name: "Okra"})

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindTransport, derr.Kind)
	assert.ErrorIs(t, err, boom)
	assert.False(t, result.Success)
}

func TestSend_HonoursCallerDeadline(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil).Maybe()

	d := newTestDispatcher(t, transport)
	d.limiter.SetBurst(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.SendLowStockAlert(ctx, "v1@farm.example", "V", models.Product{Name: "Okra"})

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindTransport, derr.Kind)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestTestConnection(t *testing.T) {
	ok := new(MockTransport)
	ok.On("Verify", mock.Anything).Return(nil)
	assert.True(t, newTestDispatcher(t, ok).TestConnection(context.Background()))

	failing := new(MockTransport)
	failing.On("Verify", mock.Anything).Return(errors.New("auth failed"))
	assert.False(t, newTestDispatcher(t, failing).TestConnection(context.Background()))
}

func TestReachable_ReusesRecentCheck(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Verify", mock.Anything).Return(errors.New("auth failed")).Once()
	transport.On("Verify", mock.Anything).Return(nil).Once()

	d := newTestDispatcher(t, transport)
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	assert.False(t, d.Reachable(context.Background(), 30*time.Second))

	clock = clock.Add(10 * time.Second)
	assert.False(t, d.Reachable(context.Background(), 30*time.Second))
	transport.AssertNumberOfCalls(t, "Verify", 1)

	clock = clock.Add(25 * time.Second)
	assert.True(t, d.Reachable(context.Background(), 30*time.Second))
	transport.AssertNumberOfCalls(t, "Verify", 2)
}

func TestNewDispatcher_RequiresHostAndFrom(t *testing.T) {
	_, err := NewDispatcher(Config{Port: 25, From: "a@b.c"}, new(MockTransport), slog.Default())
	assert.Error(t, err)

	_, err = NewDispatcher(Config{Host: "smtp.test", Port: 25}, new(MockTransport), slog.Default())
	assert.Error(t, err)
}
