package services

import (
	"context"

	"ledgerdoc/pkg/models"
)

// RecordStore loads records and applies partial updates to them.
type RecordStore interface {
	// GetRecord returns the record with the given id.
	GetRecord(ctx context.Context, id string) (*models.Record, error)

	// UpdateRecord merges fields (stored field names, e.g. "netProfit") into the record.
	UpdateRecord(ctx context.Context, id string, fields map[string]any) error
}

// ClientStore loads the bill-to party of a record.
type ClientStore interface {
	GetClient(ctx context.Context, id string) (*models.Client, error)
}

// CompanyProfileStore looks up the issuing company profile for an exact country.
// A missing profile is reported as (nil, nil).
type CompanyProfileStore interface {
	FindCompanyProfile(ctx context.Context, country string) (*models.CompanyProfile, error)
}

// CompanyProfileResolver selects the profile printed in the header, applying fallbacks.
type CompanyProfileResolver interface {
	GetCompanyProfile(ctx context.Context, countryHint string) (*models.CompanyProfile, error)
}

// Sink receives finished export artifacts and returns where they were stored.
type Sink interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}
