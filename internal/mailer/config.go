package mailer

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is everything the dispatcher needs to reach the mail server.
// It is passed explicitly; there is no package level transport.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string

	// BaseURL prefixes the call-to-action links, e.g. http://localhost:5173
	BaseURL string

	// Timeout bounds one dial plus send
	Timeout time.Duration

	// RatePerSec caps outgoing messages per second, burst equal to the rate
	RatePerSec int
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) inventoryURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/vendor/inventory"
}

func (c Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("mailer: host is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("mailer: invalid port %d", c.Port)
	}
	if c.From == "" {
		return fmt.Errorf("mailer: from address is required")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.FromName == "" {
		c.FromName = "AgriCorus Marketplace"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:5173"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 5
	}
	return c
}
