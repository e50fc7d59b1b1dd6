// Package entitlement resolves which optional integrations the active
// license currently unlocks.
package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/ports"
)

type Gate struct {
	source ports.EntitlementSource
	logger *slog.Logger
}

func NewGate(source ports.EntitlementSource, logger *slog.Logger) *Gate {
	return &Gate{
		source: source,
		logger: logger.With("service", "entitlement_gate"),
	}
}

// Resolve never errors upward: a missing, unreadable or expired license
// degrades to the most restrictive entitlement.
func (g *Gate) Resolve(ctx context.Context, now time.Time) domain.Entitlement {
	lic, err := g.source.CurrentLicense(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "Could not read license, degrading to no entitlements", "error", err)
		return domain.Entitlement{}
	}
	if lic == nil {
		return domain.Entitlement{}
	}
	if !lic.ExpiresAt.IsZero() && now.After(lic.ExpiresAt) {
		g.logger.DebugContext(ctx, "License expired", "type", lic.Type, "expired_at", lic.ExpiresAt)
		return domain.Entitlement{}
	}

	switch lic.Type {
	case domain.LicenseTypeFull:
		return domain.Entitlement{CalendarEnabled: true, MessagingEnabled: true}
	case domain.LicenseTypeGoogle:
		return domain.Entitlement{CalendarEnabled: true}
	case domain.LicenseTypeWhatsApp:
		return domain.Entitlement{MessagingEnabled: true}
	default:
		return domain.Entitlement{}
	}
}
