package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agrimarket/internal/microservices/http-api/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorDirectory resolves a vendor id to the contact used for alert emails.
// The vendors table is owned by the marketplace; this core only reads it.
type VendorDirectory interface {
	Lookup(ctx context.Context, vendorID string) (*models.VendorContact, error)
}

type pgVendorDirectory struct {
	pool *pgxpool.Pool
}

func NewVendorDirectory(pool *pgxpool.Pool) VendorDirectory {
	return &pgVendorDirectory{pool: pool}
}

// Lookup prefers the business name for display, falling back to the owner's name
func (d *pgVendorDirectory) Lookup(ctx context.Context, vendorID string) (*models.VendorContact, error) {
	query := `
		SELECT id, email, business_name, owner_name
		FROM vendors
		WHERE id = $1
	`

	var contact models.VendorContact
	var email, businessName, ownerName *string

	err := d.pool.QueryRow(ctx, query, vendorID).Scan(
		&contact.VendorID,
		&email,
		&businessName,
		&ownerName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to look up vendor: %w", err)
	}

	contact.Email = deref(email)
	contact.DisplayName = strings.TrimSpace(deref(businessName))
	if contact.DisplayName == "" {
		contact.DisplayName = strings.TrimSpace(deref(ownerName))
	}

	return &contact, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StaticVendorDirectory serves contacts from a fixed map, for local runs without the marketplace database
type StaticVendorDirectory map[string]models.VendorContact

func (d StaticVendorDirectory) Lookup(ctx context.Context, vendorID string) (*models.VendorContact, error) {
	contact, ok := d[vendorID]
	if !ok {
		return nil, ErrVendorNotFound
	}
	contact.VendorID = vendorID
	return &contact, nil
}
