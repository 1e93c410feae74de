// Package profile selects the issuing company profile printed on exported documents.
//
// Resolution never fails: an exact country match wins, a UAE hint falls back to the Qatar
// profile, and when nothing is stored the hardcoded DefaultProfile is used.
package profile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/pkg/models"
	"ledgerdoc/pkg/services"
)

// FallbackCountry is tried when a UAE hint has no profile of its own.
const FallbackCountry = "Qatar"

// DefaultProfile is the last resort when no stored profile matches.
func DefaultProfile() *models.CompanyProfile {
	return &models.CompanyProfile{
		Name:      "Fortune Gifts",
		Address:   "P.O. Box 00000, Doha, Qatar",
		Phone:     "+974 0000 0000",
		Email:     "info@fortunegifts.example",
		Country:   FallbackCountry,
		VATNumber: "N/A",
		CRNumber:  "N/A",
	}
}

// Resolver implements services.CompanyProfileResolver over a profile store.
type Resolver struct {
	store services.CompanyProfileStore
	log   zerolog.Logger
}

// NewResolver creates a resolver. A nil store always yields DefaultProfile.
func NewResolver(store services.CompanyProfileStore) *Resolver {
	return &Resolver{
		store: store,
		log:   logger.WithComponent("profile"),
	}
}

// GetCompanyProfile returns the profile for countryHint, applying the fallback chain.
// It never returns a nil profile; the error result is always nil.
func (r *Resolver) GetCompanyProfile(ctx context.Context, countryHint string) (*models.CompanyProfile, error) {
	hint := strings.TrimSpace(countryHint)

	if hint != "" {
		if p := r.find(ctx, hint); p != nil {
			return p, nil
		}
	}

	if rollup.IsUAECountry(hint) {
		if p := r.find(ctx, FallbackCountry); p != nil {
			r.log.Debug().
				Str("country", hint).
				Str("fallback", FallbackCountry).
				Msg("Using fallback company profile")
			return p, nil
		}
	}

	r.log.Warn().
		Str("country", hint).
		Msg("No company profile found, using default profile")
	return DefaultProfile(), nil
}

func (r *Resolver) find(ctx context.Context, country string) *models.CompanyProfile {
	if r.store == nil {
		return nil
	}
	p, err := r.store.FindCompanyProfile(ctx, country)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("country", country).
			Msg("Company profile lookup failed, treating as not found")
		return nil
	}
	return p
}
