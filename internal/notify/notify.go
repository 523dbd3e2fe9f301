// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

// Package notify delivers recovery messages to account holders.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/samber/oops"

	"github.com/veridia/veridia/internal/identity"
)

// SMTPNotifier delivers recovery tokens by email over SMTP.
type SMTPNotifier struct {
	addr   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// SMTPConfig configures an SMTPNotifier. Username may be empty for
// unauthenticated relays.
type SMTPConfig struct {
	Addr     string
	From     string
	Username string
	Password string
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) (*SMTPNotifier, error) {
	if cfg.Addr == "" {
		return nil, oops.Errorf("smtp address is required")
	}
	if cfg.From == "" {
		return nil, oops.Errorf("smtp from address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}

	return &SMTPNotifier{
		addr:   cfg.Addr,
		from:   cfg.From,
		auth:   auth,
		logger: logger,
	}, nil
}

// SendRecovery emails the recovery token to the given address.
func (n *SMTPNotifier) SendRecovery(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").Wrap(err)
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password recovery\r\n\r\n"+
			"A password recovery was requested for your account.\r\n"+
			"Recovery token: %s\r\n\r\n"+
			"The token is valid for one hour and can be used once.\r\n"+
			"If you did not request this, no action is needed.\r\n",
		n.from, email, token,
	)

	if err := smtp.SendMail(n.addr, n.auth, n.from, []string{email}, []byte(msg)); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").
			With("operation", "send recovery email").
			Wrap(err)
	}

	n.logger.Debug("recovery email sent", slog.String("to", email))
	return nil
}

// LogNotifier writes recovery tokens to the log instead of delivering them.
// For local development only; tokens in logs are plaintext secrets.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendRecovery logs the token at Info level.
func (n *LogNotifier) SendRecovery(_ context.Context, email, token string) error {
	n.logger.Info("recovery token issued",
		slog.String("email", email),
		slog.String("token", token),
	)
	return nil
}

// Compile-time interface checks.
var (
	_ identity.Notifier = (*SMTPNotifier)(nil)
	_ identity.Notifier = (*LogNotifier)(nil)
)
