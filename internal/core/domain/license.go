package domain

import "time"

type LicenseType string

const (
	LicenseTypeBasic    LicenseType = "basic"
	LicenseTypeWhatsApp LicenseType = "whatsapp"
	LicenseTypeGoogle   LicenseType = "google"
	LicenseTypeFull     LicenseType = "full"
)

// License is the currently installed license record. The key codec that
// produces it lives outside this engine.
type License struct {
	Type      LicenseType `json:"type"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Entitlement is derived from the active license at a point in time; it is
// never stored.
type Entitlement struct {
	CalendarEnabled  bool `json:"calendar_enabled"`
	MessagingEnabled bool `json:"messaging_enabled"`
}
