// Package memory implements the repository interfaces in process memory.
//
// Used by tests and by local demos without Postgres. Each store has a Fail
// field: when non-nil every call returns it, which is how tests simulate
// a remote failure.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lalith-99/seniorbuddy/internal/models"
)

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	Fail     error
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: map[string]models.Profile{}}
}

func (s *ProfileStore) Get(_ context.Context, uid string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	p, ok := s.profiles[uid]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *ProfileStore) Create(_ context.Context, uid, phone string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	p, ok := s.profiles[uid]
	if !ok {
		p = models.Profile{UID: uid, Phone: phone, UpdatedAt: time.Now()}
		s.profiles[uid] = p
	}
	return &p, nil
}

func (s *ProfileStore) Merge(_ context.Context, uid string, patch models.ProfilePatch) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	p, ok := s.profiles[uid]
	if !ok {
		return nil, nil
	}
	mergeString(&p.DisplayName, patch.DisplayName)
	mergeString(&p.Gender, patch.Gender)
	mergeString(&p.Phone, patch.Phone)
	mergeString(&p.Email, patch.Email)
	mergeString(&p.MedicalNotes, patch.MedicalNotes)
	mergeString(&p.EmergencyContactName, patch.EmergencyContactName)
	mergeString(&p.EmergencyContactPhone, patch.EmergencyContactPhone)
	mergeString(&p.PhotoURL, patch.PhotoURL)
	if patch.Age != nil {
		p.Age = *patch.Age
	}
	if patch.Role != nil {
		p.Role = *patch.Role
	}
	p.UpdatedAt = time.Now()
	s.profiles[uid] = p
	return &p, nil
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

type SubscriptionStore struct {
	mu    sync.RWMutex
	subs  map[string]models.Subscription
	reads int
	Fail  error
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{subs: map[string]models.Subscription{}}
}

func (s *SubscriptionStore) Get(_ context.Context, pairKey string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.Fail != nil {
		return nil, s.Fail
	}
	sub, ok := s.subs[pairKey]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (s *SubscriptionStore) Activate(_ context.Context, pairKey, elderUID, caregiverUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.subs[pairKey] = models.Subscription{
		PairKey:      pairKey,
		ElderUID:     elderUID,
		CaregiverUID: caregiverUID,
		Active:       true,
		Since:        time.Now(),
	}
	return nil
}

// Put stores sub as-is, including inactive records.
func (s *SubscriptionStore) Put(sub models.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.PairKey] = sub
}

// Reads counts Get calls, failed ones included.
func (s *SubscriptionStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

type BookingStore struct {
	mu       sync.RWMutex
	bookings []models.Booking
	Fail     error
}

func NewBookingStore() *BookingStore {
	return &BookingStore{}
}

func (s *BookingStore) Create(_ context.Context, b models.Booking) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	b.CreatedAt = time.Now()
	s.bookings = append(s.bookings, b)
	return &b, nil
}

func (s *BookingStore) ListByElder(_ context.Context, elderUID string, limit int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := make([]models.Booking, 0)
	for i := len(s.bookings) - 1; i >= 0 && len(out) < limit; i-- {
		if s.bookings[i].ElderUID == elderUID {
			out = append(out, s.bookings[i])
		}
	}
	return out, nil
}

// All returns every stored booking in insertion order.
func (s *BookingStore) All() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Booking(nil), s.bookings...)
}

type MessageStore struct {
	mu     sync.RWMutex
	nextID int64
	rooms  map[string][]models.Message
	Fail   error
}

func NewMessageStore() *MessageStore {
	return &MessageStore{rooms: map[string][]models.Message{}}
}

func (s *MessageStore) Create(_ context.Context, roomID, uid string, text, voiceURL *string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.nextID++
	msg := models.Message{
		ID:        s.nextID,
		RoomID:    roomID,
		UID:       uid,
		Text:      text,
		VoiceURL:  voiceURL,
		CreatedAt: time.Now(),
	}
	s.rooms[roomID] = append(s.rooms[roomID], msg)
	return &msg, nil
}

func (s *MessageStore) ListByRoom(_ context.Context, roomID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	out := append(make([]models.Message, 0, len(s.rooms[roomID])), s.rooms[roomID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type IdentityStore struct {
	mu     sync.Mutex
	phones map[string]string
	Fail   error
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{phones: map[string]string{}}
}

func (s *IdentityStore) Resolve(_ context.Context, phone, newUID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	if uid, ok := s.phones[phone]; ok {
		return uid, nil
	}
	s.phones[phone] = newUID
	return newUID, nil
}
