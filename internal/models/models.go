package models

import (
	"time"
)

// Role decides which side of a pair a user sits on when the chat gate
// runs. It is stored as the literal string and never validated beyond
// these three values.
type Role string

const (
	RoleElderly   Role = "Elderly"
	RoleCaregiver Role = "Caregiver"
	RoleFamily    Role = "Family"
)

// ValidRole reports whether r is one of the three known literals.
func ValidRole(r Role) bool {
	switch r {
	case RoleElderly, RoleCaregiver, RoleFamily:
		return true
	}
	return false
}

// Profile is keyed by uid.
//
// Every attribute except UID is optional: a profile is created empty the
// first time its owner opens it and filled in through merge saves.
// Pointers would let JSON distinguish "unset" from "empty" here, but the
// read side never needs that. Only Patch does.
type Profile struct {
	UID                   string    `json:"uid"`
	DisplayName           string    `json:"display_name"`
	Age                   int       `json:"age"`
	Gender                string    `json:"gender"`
	Role                  Role      `json:"role"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	MedicalNotes          string    `json:"medical_notes"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
	PhotoURL              string    `json:"photo_url"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ProfilePatch carries a partial profile. nil fields keep their stored
// value; that is the whole merge contract.
type ProfilePatch struct {
	DisplayName           *string `json:"display_name"`
	Age                   *int    `json:"age"`
	Gender                *string `json:"gender"`
	Role                  *Role   `json:"role"`
	Phone                 *string `json:"phone"`
	Email                 *string `json:"email"`
	MedicalNotes          *string `json:"medical_notes"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	PhotoURL              *string `json:"photo_url"`
}

// Subscription is the access grant for one elder/caregiver pair, keyed
// by pairing.Key. It has no expiry.
type Subscription struct {
	PairKey      string    `json:"pair_key"`
	ElderUID     string    `json:"elder_uid"`
	CaregiverUID string    `json:"caregiver_uid"`
	Active       bool      `json:"active"`
	Since        time.Time `json:"since"`
}

const BookingStatusRequested = "requested"

// Booking is append-only. CaregiverUID is nil for plain service requests.
type Booking struct {
	ID           string    `json:"id"`
	ElderUID     string    `json:"elder_uid"`
	CaregiverUID *string   `json:"caregiver_uid"`
	ServiceID    string    `json:"service_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message belongs to one room: a pair key or pairing.GlobalRoom.
//
// Text and VoiceURL are both optional; normally exactly one is set.
// CreatedAt is assigned by the database at insert, never by the client.
// ID (bigserial) breaks ties between messages written in the same
// microsecond so ordering stays stable.
type Message struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	UID       string    `json:"uid"`
	Text      *string   `json:"text,omitempty"`
	VoiceURL  *string   `json:"voice_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PhoneIdentity links a verified E.164 number to the uid issued for it.
type PhoneIdentity struct {
	Phone     string    `json:"phone"`
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
}
