package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lalith-99/seniorbuddy/internal/backend"
	"github.com/lalith-99/seniorbuddy/internal/models"
	"github.com/lalith-99/seniorbuddy/internal/pairing"
	"github.com/lalith-99/seniorbuddy/internal/repository/memory"
	"github.com/lalith-99/seniorbuddy/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	messages *memory.MessageStore
	blobs    *storage.MemoryStore
	rooms    *Rooms
}

func setupRooms(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		mr:       mr,
		rdb:      rdb,
		messages: memory.NewMessageStore(),
		blobs:    storage.NewMemoryStore("https://media.example"),
	}
	f.rooms = NewRooms(f.messages, rdb, f.blobs, zap.NewNop())
	f.rooms.now = func() time.Time { return time.UnixMilli(1717000000000) }
	return f
}

func nextSnapshot(t *testing.T, feed *Feed) []models.Message {
	t.Helper()
	select {
	case snap, ok := <-feed.Updates():
		require.True(t, ok, "feed closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return nil
	}
}

// waitForLen reads snapshots until one has n messages. Intermediate
// snapshots may be skipped by the latest-wins channel.
func waitForLen(t *testing.T, feed *Feed, n int) []models.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-feed.Updates():
			require.True(t, ok, "feed closed")
			if len(snap) == n {
				return snap
			}
		case <-deadline:
			t.Fatalf("no snapshot with %d messages", n)
			return nil
		}
	}
}

func TestSendText_RejectsBlankBeforeWrite(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := f.rooms.SendText(ctx, "global", "E1", text)
		assert.ErrorIs(t, err, backend.ErrInvalidInput)
	}

	msgs, err := f.messages.ListByRoom(ctx, "global")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendText_StoresAndOrders(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()
	room := pairing.Key("E1", "C1")

	_, err := f.rooms.SendText(ctx, room, "E1", "hello")
	require.NoError(t, err)
	_, err = f.rooms.SendText(ctx, room, "C1", "hi, how are you?")
	require.NoError(t, err)

	msgs, err := f.rooms.History(ctx, room)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", *msgs[0].Text)
	assert.Equal(t, "E1", msgs[0].UID)
	assert.Nil(t, msgs[0].VoiceURL)
	assert.False(t, msgs[1].CreatedAt.Before(msgs[0].CreatedAt))
}

func TestSendText_BackendFailureSurfaced(t *testing.T) {
	f := setupRooms(t)
	f.messages.Fail = errors.New("write timeout")

	_, err := f.rooms.SendText(context.Background(), "global", "E1", "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, backend.ErrInvalidInput)
}

func TestSendVoice_UploadsThenAppends(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	msg, err := f.rooms.SendVoice(ctx, "global", "E1", strings.NewReader("webm-bytes"), 10)
	require.NoError(t, err)

	require.NotNil(t, msg.VoiceURL)
	assert.Equal(t, "https://media.example/voice/E1/1717000000000.webm", *msg.VoiceURL)
	assert.Nil(t, msg.Text)

	obj, ok := f.blobs.Get("voice/E1/1717000000000.webm")
	require.True(t, ok)
	assert.Equal(t, "audio/webm", obj.ContentType)
	assert.Equal(t, "webm-bytes", string(obj.Data))
}

func TestSendVoice_FailedAppendLeavesOrphan(t *testing.T) {
	f := setupRooms(t)
	f.messages.Fail = errors.New("insert failed")

	_, err := f.rooms.SendVoice(context.Background(), "global", "E1", strings.NewReader("webm"), 4)
	require.Error(t, err)

	// Accepted behavior: the upload is not rolled back.
	assert.Equal(t, []string{"voice/E1/1717000000000.webm"}, f.blobs.Keys())
}

func TestSendVoice_FailedUploadSkipsAppend(t *testing.T) {
	f := setupRooms(t)
	f.blobs.Fail = errors.New("bucket unreachable")

	_, err := f.rooms.SendVoice(context.Background(), "global", "E1", strings.NewReader("webm"), 4)
	require.Error(t, err)

	msgs, err := f.messages.ListByRoom(context.Background(), "global")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSubscribe_InitialSnapshotThenUpdates(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()
	room := pairing.Key("E1", "C1")

	_, err := f.rooms.SendText(ctx, room, "E1", "before")
	require.NoError(t, err)

	feed, err := f.rooms.Subscribe(ctx, room)
	require.NoError(t, err)
	defer feed.Cancel()

	initial := nextSnapshot(t, feed)
	require.Len(t, initial, 1)
	assert.Equal(t, "before", *initial[0].Text)

	_, err = f.rooms.SendText(ctx, room, "C1", "after")
	require.NoError(t, err)

	snap := waitForLen(t, feed, 2)
	assert.Equal(t, "before", *snap[0].Text)
	assert.Equal(t, "after", *snap[1].Text)
}

func TestSubscribe_OtherRoomsDoNotLeak(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	feed, err := f.rooms.Subscribe(ctx, "global")
	require.NoError(t, err)
	defer feed.Cancel()
	assert.Empty(t, nextSnapshot(t, feed))

	_, err = f.rooms.SendText(ctx, pairing.Key("E1", "C1"), "E1", "private")
	require.NoError(t, err)
	_, err = f.rooms.SendText(ctx, "global", "E2", "public")
	require.NoError(t, err)

	snap := waitForLen(t, feed, 1)
	assert.Equal(t, "public", *snap[0].Text)
}

func TestFeed_CancelIsIdempotent(t *testing.T) {
	f := setupRooms(t)

	feed, err := f.rooms.Subscribe(context.Background(), "global")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Cancel()
		}()
	}
	wg.Wait()
	feed.Cancel()

	select {
	case <-feed.Done():
	default:
		t.Fatal("feed not done after Cancel")
	}

	// Updates is closed once the initial snapshot (if unread) is drained.
	for range feed.Updates() {
	}
}

func TestFeed_ContextCancelDetaches(t *testing.T) {
	f := setupRooms(t)
	ctx, cancel := context.WithCancel(context.Background())

	feed, err := f.rooms.Subscribe(ctx, "global")
	require.NoError(t, err)

	cancel()
	select {
	case <-feed.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feed still attached after context cancel")
	}
}

func TestWatch_Callback(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	got := make(chan int, 8)
	feed, err := f.rooms.Watch(ctx, "global", func(msgs []models.Message) {
		got <- len(msgs)
	})
	require.NoError(t, err)
	defer feed.Cancel()

	_, err = f.rooms.SendText(ctx, "global", "E1", "hello")
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-got:
			if n == 1 {
				return
			}
		case <-deadline:
			t.Fatal("callback never saw the new message")
		}
	}
}

func TestWatch_NoCallbackAfterCancel(t *testing.T) {
	f := setupRooms(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu    sync.Mutex
		calls int
	)
	feed, err := f.rooms.Watch(ctx, "global", func([]models.Message) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})
	require.NoError(t, err)

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first callback never ran")
	}

	// Queue a second snapshot behind the blocked callback.
	_, err = f.rooms.SendText(ctx, "global", "E1", "hello")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(feed.updates) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancelled := make(chan struct{})
	go func() {
		feed.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while a callback was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel never returned")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "callback ran after Cancel")
}

func TestSubscribe_HistoryFailure(t *testing.T) {
	f := setupRooms(t)
	f.messages.Fail = errors.New("db down")

	_, err := f.rooms.Subscribe(context.Background(), "global")
	require.Error(t, err)
}

func TestRooms_Disabled(t *testing.T) {
	rooms := NewRooms(nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := rooms.SendText(ctx, "global", "E1", "hello")
	assert.ErrorIs(t, err, backend.ErrDisabled)
	_, err = rooms.SendVoice(ctx, "global", "E1", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, backend.ErrDisabled)
	_, err = rooms.Subscribe(ctx, "global")
	assert.ErrorIs(t, err, backend.ErrDisabled)
	_, err = rooms.History(ctx, "global")
	assert.ErrorIs(t, err, backend.ErrDisabled)
}
