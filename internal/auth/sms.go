package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var ErrSMSNotConfigured = errors.New("sms gateway not configured")

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// GatewaySender posts to an HTTP SMS gateway:
//
//	POST {baseURL}/messages
//	Authorization: Bearer {apiKey}
//	{"to": "+91...", "from": "SeniorBuddy", "text": "..."}
//
// No retries: a retried send can deliver two different codes to the same
// person, and only the second would work.
type GatewaySender struct {
	client *resty.Client
	sender string
	logger *zap.Logger
}

func NewGatewaySender(baseURL, apiKey, sender string, logger *zap.Logger) *GatewaySender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GatewaySender{client: client, sender: sender, logger: logger}
}

type gatewayRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

type gatewayError struct {
	Error string `json:"error"`
}

func (s *GatewaySender) Send(ctx context.Context, phone, message string) error {
	var failure gatewayError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(gatewayRequest{To: phone, From: s.sender, Text: message}).
		SetError(&failure).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		s.logger.Warn("sms gateway rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", failure.Error),
		)
		return fmt.Errorf("send sms: gateway status %d", resp.StatusCode())
	}
	return nil
}

// LogSender writes codes to the log instead of sending them. With reveal
// false (production) it refuses, so a missing gateway fails loudly rather
// than silently locking everyone out.
type LogSender struct {
	logger *zap.Logger
	reveal bool
}

func NewLogSender(logger *zap.Logger, reveal bool) *LogSender {
	return &LogSender{logger: logger, reveal: reveal}
}

func (s *LogSender) Send(_ context.Context, phone, message string) error {
	if !s.reveal {
		return ErrSMSNotConfigured
	}
	s.logger.Info("sms (not sent, no gateway configured)",
		zap.String("to", phone),
		zap.String("text", message),
	)
	return nil
}
