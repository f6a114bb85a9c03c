package mailer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRelay is a minimal SMTP server with configurable replies to the
// end of DATA and to QUIT
type scriptedRelay struct {
	dataReply string
	quitReply string
	accepted  atomic.Int32
}

func startRelay(t *testing.T, relay *scriptedRelay) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go relay.serve(conn)
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func (r *scriptedRelay) serve(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)
	fmt.Fprint(conn, "220 relay.test ESMTP\r\n")

	inData := false
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if inData {
			if line == ".\r\n" {
				inData = false
				if strings.HasPrefix(r.dataReply, "250") {
					r.accepted.Add(1)
				}
				fmt.Fprint(conn, r.dataReply)
			}
			continue
		}

		cmd := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			fmt.Fprint(conn, "250 relay.test\r\n")
		case cmd == "DATA":
			inData = true
			fmt.Fprint(conn, "354 end with <CRLF>.<CRLF>\r\n")
		case cmd == "QUIT":
			fmt.Fprint(conn, r.quitReply)
			return
		default:
			fmt.Fprint(conn, "250 2.0.0 ok\r\n")
		}
	}
}

func relayDispatcher(t *testing.T, port int) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(Config{
		Host:       "127.0.0.1",
		Port:       port,
		From:       "alerts@agricorus.test",
		Timeout:    2 * time.Second,
		RatePerSec: 100,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return d
}

func TestSMTPTransport_Delivers(t *testing.T) {
	relay := &scriptedRelay{dataReply: "250 2.0.0 queued\r\n", quitReply: "221 2.0.0 bye\r\n"}
	d := relayDispatcher(t, startRelay(t, relay))

	result, err := d.SendLowStockAlert(context.Background(), "v1@farm.example", "Green Acres", models.Product{Name: "Okra", Stock: 2})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.MessageID)
	assert.EqualValues(t, 1, relay.accepted.Load())
}

func TestSMTPTransport_QuitFailureAfterAcceptanceIsSuccess(t *testing.T) {
	relay := &scriptedRelay{dataReply: "250 2.0.0 queued\r\n", quitReply: "421 4.3.2 shutting down\r\n"}
	d := relayDispatcher(t, startRelay(t, relay))

	result, err := d.SendOutOfStockAlert(context.Background(), "v1@farm.example", "Green Acres", models.Product{Name: "Okra"})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.EqualValues(t, 1, relay.accepted.Load())
}

func TestSMTPTransport_RejectedDataIsTransportError(t *testing.T) {
	relay := &scriptedRelay{dataReply: "554 5.7.1 message rejected\r\n", quitReply: "221 2.0.0 bye\r\n"}
	d := relayDispatcher(t, startRelay(t, relay))

	result, err := d.SendLowStockAlert(context.Background(), "v1@farm.example", "Green Acres", models.Product{Name: "Okra", Stock: 2})

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, KindTransport, derr.Kind)
	assert.False(t, result.Success)
	assert.Zero(t, relay.accepted.Load())
}

func TestSMTPTransport_Verify(t *testing.T) {
	relay := &scriptedRelay{dataReply: "250 2.0.0 queued\r\n", quitReply: "221 2.0.0 bye\r\n"}
	d := relayDispatcher(t, startRelay(t, relay))

	assert.True(t, d.TestConnection(context.Background()))
}
