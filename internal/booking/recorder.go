// Package booking records service requests and, when a caregiver is
// named, switches on chat access for the pair.
//
// This is the only code path that activates a subscription.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/seniorbuddy/internal/alerts"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/catalog"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/pairing"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"go.uber.org/zap"
)

type Request struct {
	ElderUID     string
	ServiceID    string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM, 24h
	Notes        string
	CaregiverUID *string
}

// AlertTimeout caps how long a booking response waits on its alert.
const AlertTimeout = 3 * time.Second

type Recorder struct {
	bookings     repository.BookingRepository
	subs         repository.SubscriptionRepository
	catalog      *catalog.Catalog
	notifier     alerts.Notifier
	alertTimeout time.Duration
	logger       *zap.Logger
}

// NewRecorder wires the recorder. nil repositories build the disabled
// variant. notifier may be nil.
func NewRecorder(
	bookings repository.BookingRepository,
	subs repository.SubscriptionRepository,
	cat *catalog.Catalog,
	notifier alerts.Notifier,
	logger *zap.Logger,
) *Recorder {
	return &Recorder{
		bookings:     bookings,
		subs:         subs,
		catalog:      cat,
		notifier:     notifier,
		alertTimeout: AlertTimeout,
		logger:       logger,
	}
}

// normalize trims the uids so the pair key written here is the one the
// gate later reads.
func normalize(req Request) Request {
	req.ElderUID = strings.TrimSpace(req.ElderUID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.CaregiverUID != nil {
		caregiver := strings.TrimSpace(*req.CaregiverUID)
		req.CaregiverUID = &caregiver
	}
	return req
}

// Validate checks req without touching the network.
func (r *Recorder) Validate(req Request) error {
	req = normalize(req)
	if strings.TrimSpace(req.ElderUID) == "" {
		return fmt.Errorf("%w: elder uid is required", backend.ErrInvalidInput)
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		return fmt.Errorf("%w: service is required", backend.ErrInvalidInput)
	}
	if r.catalog != nil {
		if _, ok := r.catalog.Lookup(req.ServiceID); !ok {
			return fmt.Errorf("%w: unknown service %q", backend.ErrInvalidInput, req.ServiceID)
		}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", backend.ErrInvalidInput)
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", backend.ErrInvalidInput)
	}
	if req.CaregiverUID != nil && !pairing.Valid(req.ElderUID, *req.CaregiverUID) {
		return fmt.Errorf("%w: caregiver must be a different, non-empty uid", backend.ErrInvalidInput)
	}
	return nil
}

// Submit stores the booking, then activates the pair's subscription if a
// caregiver was named.
//
// The two writes are not a transaction. If the first succeeds and the
// second fails, the booking stays without an access grant and the caller
// gets one error for the whole submission. Resubmitting is safe: the
// activation is an upsert.
func (r *Recorder) Submit(ctx context.Context, req Request) (*models.Booking, error) {
	if r.bookings == nil || r.subs == nil {
		return nil, backend.ErrDisabled
	}
	req = normalize(req)
	if err := r.Validate(req); err != nil {
		return nil, err
	}

	b, err := r.bookings.Create(ctx, models.Booking{
		ID:           uuid.NewString(),
		ElderUID:     req.ElderUID,
		CaregiverUID: req.CaregiverUID,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		Time:         req.Time,
		Notes:        req.Notes,
		Status:       models.BookingStatusRequested,
	})
	if err != nil {
		return nil, fmt.Errorf("submit booking: %w", err)
	}

	if req.CaregiverUID != nil {
		key := pairing.Key(req.ElderUID, *req.CaregiverUID)
		if err := r.subs.Activate(ctx, key, req.ElderUID, *req.CaregiverUID); err != nil {
			r.logger.Error("booking stored but subscription activation failed",
				zap.String("booking_id", b.ID),
				zap.String("pair_key", key),
				zap.Error(err),
			)
			return nil, fmt.Errorf("submit booking: %w", err)
		}
	}

	r.alert(ctx, b)
	return b, nil
}

// List returns an elder's most recent bookings.
func (r *Recorder) List(ctx context.Context, elderUID string, limit int) ([]models.Booking, error) {
	if r.bookings == nil {
		return nil, backend.ErrDisabled
	}
	if elderUID == "" {
		return nil, fmt.Errorf("%w: elder uid is required", backend.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return r.bookings.ListByElder(ctx, elderUID, limit)
}

func (r *Recorder) alert(ctx context.Context, b *models.Booking) {
	if r.notifier == nil {
		return
	}
	payload := map[string]any{
		"booking_id": b.ID,
		"service_id": b.ServiceID,
		"date":       b.Date,
		"time":       b.Time,
	}
	if b.CaregiverUID != nil {
		payload["caregiver_uid"] = *b.CaregiverUID
	}
	// The booking is committed; a cancelled request or a slow broker
	// must not turn it into an error or hold the response.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.alertTimeout)
	defer cancel()

	err := r.notifier.Notify(ctx, alerts.Alert{
		Kind:     alerts.KindBooking,
		ElderUID: b.ElderUID,
		At:       b.CreatedAt,
		Payload:  payload,
	})
	if err != nil {
		r.logger.Warn("booking alert failed", zap.String("booking_id", b.ID), zap.Error(err))
	}
}
