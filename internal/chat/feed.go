package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"go.uber.org/zap"
)

// Feed is a live view of one room.
//
// Updates yields full ordered snapshots. The channel holds one snapshot;
// if the reader falls behind, an unread snapshot is replaced by the newer
// one, which is always a superset of it. The channel is closed when the
// feed stops.
type Feed struct {
	roomID  string
	updates chan []models.Message
	cancel  context.CancelFunc
	stop    <-chan struct{}
	done    chan struct{}
	once    sync.Once

	// watching is set by Watch and closed when its callback goroutine
	// has returned.
	watching chan struct{}
}

func (f *Feed) Updates() <-chan []models.Message {
	return f.updates
}

// Done is closed once the feed has fully detached.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Cancel detaches the feed and waits for it to stop. Safe to call more
// than once and from several goroutines. For a Watch feed no callback
// runs after Cancel returns, so Cancel must not be called from inside
// the callback itself.
func (f *Feed) Cancel() {
	f.once.Do(f.cancel)
	<-f.done
	if f.watching != nil {
		<-f.watching
	}
}

func (f *Feed) deliver(snapshot []models.Message) {
	for {
		select {
		case f.updates <- snapshot:
			return
		default:
		}
		// Full: drop the stale snapshot and try again. We are the only
		// sender, so this loop ends after at most one retry.
		select {
		case <-f.updates:
		default:
		}
	}
}

// Subscribe attaches a feed to roomID.
//
// The Redis subscription is confirmed before the first read, so a message
// written between the read and the attach still produces a later
// snapshot. The first snapshot is ready on Updates when Subscribe returns.
// Cancelling ctx detaches the feed the same way Cancel does.
func (r *Rooms) Subscribe(ctx context.Context, roomID string) (*Feed, error) {
	if !r.enabled() {
		return nil, backend.ErrDisabled
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: empty room id", backend.ErrInvalidInput)
	}

	ctx, cancel := context.WithCancel(ctx)
	ps := r.rdb.Subscribe(ctx, channelFor(roomID))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		cancel()
		return nil, fmt.Errorf("attach room feed: %w", err)
	}

	initial, err := r.messages.ListByRoom(ctx, roomID)
	if err != nil {
		ps.Close()
		cancel()
		return nil, fmt.Errorf("load room history: %w", err)
	}

	f := &Feed{
		roomID:  roomID,
		updates: make(chan []models.Message, 1),
		cancel:  cancel,
		stop:    ctx.Done(),
		done:    make(chan struct{}),
	}
	f.updates <- initial

	notifications := ps.Channel()
	go func() {
		defer close(f.done)
		defer close(f.updates)
		defer ps.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notifications:
				if !ok {
					return
				}
				drain(notifications)

				snapshot, err := r.messages.ListByRoom(ctx, roomID)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					r.logger.Warn("room snapshot failed",
						zap.String("room_id", roomID),
						zap.Error(err),
					)
					continue
				}
				f.deliver(snapshot)
			}
		}
	}()

	return f, nil
}

// Watch is Subscribe with a callback. onUpdate runs on the feed's own
// goroutine, once per snapshot, starting with the current history.
// Snapshots still buffered when the feed stops are dropped.
func (r *Rooms) Watch(ctx context.Context, roomID string, onUpdate func([]models.Message)) (*Feed, error) {
	f, err := r.Subscribe(ctx, roomID)
	if err != nil {
		return nil, err
	}
	f.watching = make(chan struct{})
	go func() {
		defer close(f.watching)
		for {
			select {
			case <-f.stop:
				return
			case snapshot, ok := <-f.updates:
				if !ok {
					return
				}
				// select picks at random when both are ready.
				select {
				case <-f.stop:
					return
				default:
				}
				onUpdate(snapshot)
			}
		}
	}()
	return f, nil
}

// drain discards notifications that queued up while we were busy. One
// re-read covers all of them.
func drain[T any](ch <-chan T) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
