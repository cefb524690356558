package domain

import "time"

// CheckInResponse is the mother's self-reported status.
type CheckInResponse string

const (
	CheckInOK    CheckInResponse = "ok"
	CheckInNotOK CheckInResponse = "not_ok"
)

// ValidCheckInResponse reports whether r is a known response.
func ValidCheckInResponse(r CheckInResponse) bool {
	return r == CheckInOK || r == CheckInNotOK
}

// CheckInChannel tags where a check-in originated.
type CheckInChannel string

const (
	ChannelApp      CheckInChannel = "app"
	ChannelWhatsApp CheckInChannel = "whatsapp"
	ChannelSMS      CheckInChannel = "sms"
)

// ValidCheckInChannel reports whether c is a known channel.
func ValidCheckInChannel(c CheckInChannel) bool {
	switch c {
	case ChannelApp, ChannelWhatsApp, ChannelSMS:
		return true
	}
	return false
}

// CheckIn is a mother's self-reported daily status (checkins table).
// Immutable once created; it never transitions.
type CheckIn struct {
	ID         string          `db:"checkin_id" json:"id"`
	MotherID   string          `db:"mother_id" json:"mother_id"`
	MotherName *string         `db:"mother_name" json:"mother_name,omitempty"`
	Response   CheckInResponse `db:"response" json:"response"`
	Comment    *string         `db:"comment" json:"comment,omitempty"`
	Channel    CheckInChannel  `db:"channel" json:"channel"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
