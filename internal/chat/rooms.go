// Package chat binds rooms to their ordered message history.
//
// Writes go to Postgres. After each write the room's Redis channel gets a
// poke; every feed subscribed to that channel re-reads the whole room and
// hands its owner a fresh snapshot. Feeds never see deltas, so a missed or
// duplicated poke costs one extra read and nothing else.
package chat

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/repository"
	"github.com/lalith-99/seniorbuddy/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Rooms struct {
	messages repository.MessageRepository
	rdb      *redis.Client
	blobs    storage.Blobs
	logger   *zap.Logger
	now      func() time.Time
}

// NewRooms wires the adapter. Passing a nil messages repository builds
// the disabled variant: every operation returns backend.ErrDisabled.
func NewRooms(messages repository.MessageRepository, rdb *redis.Client, blobs storage.Blobs, logger *zap.Logger) *Rooms {
	return &Rooms{
		messages: messages,
		rdb:      rdb,
		blobs:    blobs,
		logger:   logger,
		now:      time.Now,
	}
}

func channelFor(roomID string) string {
	return "room:" + roomID
}

func (r *Rooms) enabled() bool {
	return r.messages != nil && r.rdb != nil
}

// History returns the room's messages ordered by creation time, oldest first.
func (r *Rooms) History(ctx context.Context, roomID string) ([]models.Message, error) {
	if !r.enabled() {
		return nil, backend.ErrDisabled
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: empty room id", backend.ErrInvalidInput)
	}
	return r.messages.ListByRoom(ctx, roomID)
}

// SendText appends a text message. Blank text is rejected before any
// remote call.
func (r *Rooms) SendText(ctx context.Context, roomID, uid, text string) (*models.Message, error) {
	if !r.enabled() {
		return nil, backend.ErrDisabled
	}
	if roomID == "" || uid == "" {
		return nil, fmt.Errorf("%w: room and sender are required", backend.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is empty", backend.ErrInvalidInput)
	}

	msg, err := r.messages.Create(ctx, roomID, uid, &text, nil)
	if err != nil {
		return nil, fmt.Errorf("send text: %w", err)
	}
	r.announce(ctx, msg)
	return msg, nil
}

// SendVoice uploads audio and then appends a message pointing at it.
//
// The two steps are separate remote calls. If the append fails after the
// upload succeeded, the object stays in the bucket unreferenced; nothing
// cleans it up.
func (r *Rooms) SendVoice(ctx context.Context, roomID, uid string, audio io.Reader, size int64) (*models.Message, error) {
	if !r.enabled() || r.blobs == nil {
		return nil, backend.ErrDisabled
	}
	if roomID == "" || uid == "" {
		return nil, fmt.Errorf("%w: room and sender are required", backend.ErrInvalidInput)
	}
	if audio == nil || size == 0 {
		return nil, fmt.Errorf("%w: voice clip is empty", backend.ErrInvalidInput)
	}

	key := storage.VoiceKey(uid, r.now())
	if err := r.blobs.Put(ctx, key, storage.VoiceContentType, audio, size); err != nil {
		return nil, fmt.Errorf("upload voice: %w", err)
	}
	url, err := r.blobs.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve voice url: %w", err)
	}

	msg, err := r.messages.Create(ctx, roomID, uid, nil, &url)
	if err != nil {
		r.logger.Warn("voice uploaded but message append failed",
			zap.String("room_id", roomID),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("send voice: %w", err)
	}
	r.announce(ctx, msg)
	return msg, nil
}

// announce pokes the room's subscribers. The message is already stored,
// so a failed publish only delays delivery until the next poke; it is
// logged and not returned.
func (r *Rooms) announce(ctx context.Context, msg *models.Message) {
	err := r.rdb.Publish(ctx, channelFor(msg.RoomID), strconv.FormatInt(msg.ID, 10)).Err()
	if err != nil {
		r.logger.Warn("room notification failed",
			zap.String("room_id", msg.RoomID),
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
