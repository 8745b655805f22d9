// Package alerts tells an elder's family that something happened: a
// booking was placed or SOS was pressed.
//
// Alerts are best-effort. The operation that raised one has already
// succeeded by the time Notify runs, so callers log a failed Notify and
// move on.
package alerts

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindBooking Kind = "booking"
	KindSOS     Kind = "sos"
)

type Alert struct {
	Kind     Kind           `json:"kind"`
	ElderUID string         `json:"elder_uid"`
	At       time.Time      `json:"at"`
	Payload  map[string]any `json:"payload,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// LogNotifier writes alerts to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, a Alert) error {
	n.logger.Info("family alert",
		zap.String("kind", string(a.Kind)),
		zap.String("elder_uid", a.ElderUID),
		zap.Time("at", a.At),
		zap.Any("payload", a.Payload),
	)
	return nil
}
