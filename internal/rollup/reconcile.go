package rollup

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ledgerdoc/internal/logger"
	"ledgerdoc/pkg/models"
	"ledgerdoc/pkg/services"
)

// PersistFunc writes a corrected net profit for the record being reconciled.
type PersistFunc func(ctx context.Context, netProfit decimal.Decimal) error

// ReconcileNetProfit recomputes the net profit of record and, when it differs from the stored
// value (both rounded to 2 places), calls persist exactly once and returns a corrected copy.
// When nothing changed the same record is returned and persist is not called, so calling it
// again on the returned record is a no-op.
//
// A failed persist still returns the corrected copy along with an error wrapping ErrPersistFailed.
func ReconcileNetProfit(ctx context.Context, record *models.Record, client *models.Client, persist PersistFunc) (*models.Record, bool, error) {
	if record == nil {
		return nil, false, ErrMissingRecord
	}

	computed := ComputeNetProfit(record, client)
	if computed.Equal(RoundHalfUp(record.NetProfit)) {
		return record, false, nil
	}

	corrected := record.Clone()
	corrected.NetProfit = computed
	corrected.UpdatedAt = time.Now().UTC()

	if persist != nil {
		if err := persist(ctx, computed); err != nil {
			return corrected, true, WrapReconcileError("Persist", record.ID, errors.Join(ErrPersistFailed, err))
		}
	}

	return corrected, true, nil
}

// Reconciler keeps stored net profits in line with freshly computed values.
type Reconciler struct {
	records services.RecordStore
	clients services.ClientStore
	log     zerolog.Logger

	// OnRecompute, when set, receives an event for every overwritten net profit.
	OnRecompute func(RecomputeEvent)

	// DryRun computes and reports drift without writing it back.
	DryRun bool
}

// NewReconciler creates a reconciler over the given stores.
func NewReconciler(records services.RecordStore, clients services.ClientStore) *Reconciler {
	return &Reconciler{
		records: records,
		clients: clients,
		log:     logger.WithComponent("rollup-reconcile"),
	}
}

// Reconcile loads the record and its client, recomputes the net profit with a fresh VAT flag and
// persists it when it drifted. The returned record always carries the freshest value.
func (r *Reconciler) Reconcile(ctx context.Context, recordID string) (*models.Record, bool, error) {
	const op = "Reconcile"

	record, err := r.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, false, WrapReconcileError(op, recordID, err)
	}
	if record == nil {
		return nil, false, WrapReconcileError(op, recordID, ErrRecordNotFound)
	}

	client := r.loadClient(ctx, record)
	return r.ReconcileRecord(ctx, record, client)
}

// ReconcileRecord reconciles an already loaded record against client.
func (r *Reconciler) ReconcileRecord(ctx context.Context, record *models.Record, client *models.Client) (*models.Record, bool, error) {
	if record == nil {
		return nil, false, ErrMissingRecord
	}
	previous := record.NetProfit

	var persist PersistFunc
	if !r.DryRun {
		persist = func(ctx context.Context, netProfit decimal.Decimal) error {
			return r.records.UpdateRecord(ctx, record.ID, map[string]any{
				"netProfit": netProfit.InexactFloat64(),
				"updatedAt": time.Now().UTC(),
			})
		}
	}

	corrected, changed, err := ReconcileNetProfit(ctx, record, client, persist)
	if !changed {
		r.log.Debug().
			Str("record_id", record.ID).
			Str("net_profit", previous.StringFixed(ProfitPlaces)).
			Msg("Stored net profit is current")
		return corrected, false, err
	}

	event := RecomputeEvent{
		RecordID:     record.ID,
		Previous:     previous,
		Current:      corrected.NetProfit,
		Persisted:    err == nil && !r.DryRun,
		PersistError: err,
		At:           corrected.UpdatedAt,
	}

	logEvent := r.log.Info()
	if err != nil {
		logEvent = r.log.Error().Err(err)
	}
	logEvent.
		Str("record_id", record.ID).
		Str("previous", previous.StringFixed(ProfitPlaces)).
		Str("current", corrected.NetProfit.StringFixed(ProfitPlaces)).
		Bool("persisted", event.Persisted).
		Msg("Net profit recomputed")

	if r.OnRecompute != nil {
		r.OnRecompute(event)
	}

	return corrected, true, err
}

// loadClient returns the record's client or, when it cannot be loaded, a client carrying only
// the denormalised name (no country, therefore no VAT).
func (r *Reconciler) loadClient(ctx context.Context, record *models.Record) *models.Client {
	fallback := &models.Client{ID: record.ClientID, Name: record.ClientName}
	if record.ClientID == "" || r.clients == nil {
		return fallback
	}

	client, err := r.clients.GetClient(ctx, record.ClientID)
	if err != nil || client == nil {
		r.log.Warn().
			Err(err).
			Str("record_id", record.ID).
			Str("client_id", record.ClientID).
			Msg("Client not available, reconciling without VAT")
		return fallback
	}
	return client
}
