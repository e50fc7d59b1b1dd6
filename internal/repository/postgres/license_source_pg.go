package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/ports"
)

type pgLicenseSource struct {
	db *pgxpool.Pool
}

// NewPgLicenseSource reads the currently installed license from PostgreSQL.
func NewPgLicenseSource(db *pgxpool.Pool) ports.EntitlementSource {
	return &pgLicenseSource{db: db}
}

// CurrentLicense returns the most recently installed license, or nil when
// none exists. Expiry is judged by the entitlement gate, not here.
func (r *pgLicenseSource) CurrentLicense(ctx context.Context) (*domain.License, error) {
	lic := &domain.License{}
	query := `SELECT type, expires_at FROM licenses ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRow(ctx, query).Scan(&lic.Type, &lic.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lic, nil
}
