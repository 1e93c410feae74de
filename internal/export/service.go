// Package export turns a record into a multi-page PDF.
//
// The Assembler owns one export run as a small state machine:
//
//	Idle -> Paginating -> RenderingPage(k) -> Appending(k) -> ... -> Finalizing -> Done | Failed
//
// Pages are processed strictly one after another so that at most one page worth of decoded
// images and one raster buffer are alive at a time. Within a page, images are transcoded
// concurrently and joined before the page is composed. Missing images are tolerated; snapshot,
// append, profile and sink failures fail the whole run and discard the partial document.
//
// Service wires the Assembler to the record and client stores for callers that only have an id.
package export

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"ledgerdoc/internal/logger"
	"ledgerdoc/internal/rollup"
	"ledgerdoc/pkg/models"
	"ledgerdoc/pkg/services"
)

// Service exports stored records by id.
type Service struct {
	records   services.RecordStore
	clients   services.ClientStore
	assembler *Assembler
	log       zerolog.Logger

	// Reconciler, when set, brings the stored net profit up to date before exporting.
	Reconciler *rollup.Reconciler
}

// NewService creates an export service over the given stores.
func NewService(records services.RecordStore, clients services.ClientStore, assembler *Assembler) *Service {
	return &Service{
		records:   records,
		clients:   clients,
		assembler: assembler,
		log:       logger.WithComponent("export-service"),
	}
}

// ExportRecord loads the record and its client and exports them.
func (s *Service) ExportRecord(ctx context.Context, recordID string) (*Result, error) {
	const op = "LoadRecord"

	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, newExportError(op, 0, "", ErrRecordUnavailable, err)
	}
	if record == nil {
		return nil, newExportError(op, 0, "", ErrRecordUnavailable, ErrMissingRecord)
	}

	client := s.loadClient(ctx, record)

	if s.Reconciler != nil {
		reconciled, changed, err := s.Reconciler.ReconcileRecord(ctx, record, client)
		switch {
		case err != nil && errors.Is(err, rollup.ErrPersistFailed):
			s.log.Warn().
				Err(err).
				Str("record_id", record.ID).
				Msg("Exporting with the recomputed net profit, persisting it failed")
		case err != nil:
			s.log.Warn().Err(err).Str("record_id", record.ID).Msg("Net profit reconciliation failed")
		}
		if reconciled != nil {
			record = reconciled
		}
		if changed {
			s.log.Info().
				Str("record_id", record.ID).
				Str("net_profit", record.NetProfit.StringFixed(rollup.ProfitPlaces)).
				Msg("Net profit reconciled before export")
		}
	}

	return s.assembler.Export(ctx, Request{Record: record, Client: client})
}

// loadClient returns the record's client or a name-only client when it cannot be loaded.
func (s *Service) loadClient(ctx context.Context, record *models.Record) *models.Client {
	fallback := &models.Client{ID: record.ClientID, Name: record.ClientName}
	if record.ClientID == "" || s.clients == nil {
		return fallback
	}

	client, err := s.clients.GetClient(ctx, record.ClientID)
	if err != nil || client == nil {
		s.log.Warn().
			Err(err).
			Str("record_id", record.ID).
			Str("client_id", record.ClientID).
			Msg("Client not available, exporting with stored client name")
		return fallback
	}
	return client
}
