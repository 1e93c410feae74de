package store

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ledgerdoc/internal/logger"
	"ledgerdoc/pkg/models"
)

// Firestore collection names.
const (
	CollectionPurchaseOrders  = "purchaseOrders"
	CollectionInvoices        = "invoices"
	CollectionRecords         = "records"
	CollectionClients         = "clients"
	CollectionCompanyProfiles = "companyProfiles"
)

// FirestoreConfig selects the Firestore database.
type FirestoreConfig struct {
	ProjectID  string
	DatabaseID string // "(default)" when empty

	// RecordCollections are searched in order for a record id.
	RecordCollections []string
}

// FirestoreStore implements the record, client and company-profile stores on Firestore.
type FirestoreStore struct {
	client            *firestore.Client
	recordCollections []string
	log               zerolog.Logger

	mu        sync.Mutex
	recordsIn map[string]string // record id -> collection it was found in
}

// NewFirestoreStore connects to Firestore with credentials from the environment.
// It expects either GOOGLE_CREDENTIALS JSON or a GOOGLE_APPLICATION_CREDENTIALS path, and falls
// back to application default credentials.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	const op = "NewFirestoreStore"

	if cfg.ProjectID == "" {
		return nil, WrapStoreError(op, ErrMissingProject, "")
	}
	database := cfg.DatabaseID
	if database == "" {
		database = firestore.DefaultDatabaseID
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, database, opts...)
	if err != nil {
		return nil, WrapStoreError(op, err, "failed to create Firestore client")
	}

	return NewFirestoreStoreWithClient(client, cfg.RecordCollections), nil
}

// NewFirestoreStoreWithClient creates a store with an explicit client (for testing).
func NewFirestoreStoreWithClient(client *firestore.Client, recordCollections []string) *FirestoreStore {
	if len(recordCollections) == 0 {
		recordCollections = []string{CollectionPurchaseOrders, CollectionInvoices, CollectionRecords}
	}
	return &FirestoreStore{
		client:            client,
		recordCollections: recordCollections,
		log:               logger.WithComponent("store-firestore"),
		recordsIn:         map[string]string{},
	}
}

// Close releases the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// GetRecord implements services.RecordStore. Records from the invoices collection default to
// the Invoice kind when the document carries none.
func (s *FirestoreStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	const op = "GetRecord"

	snap, collection, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, WrapStoreError(op, err, "record "+id)
	}

	data := snap.Data()
	if _, hasKind := data["kind"]; !hasKind && collection == CollectionInvoices {
		data["kind"] = string(models.KindInvoice)
	}
	return models.RecordFromMap(snap.Ref.ID, data), nil
}

// UpdateRecord implements services.RecordStore.
func (s *FirestoreStore) UpdateRecord(ctx context.Context, id string, fields map[string]any) error {
	const op = "UpdateRecord"

	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	collection, known := s.recordsIn[id]
	s.mu.Unlock()
	if !known {
		_, found, err := s.findRecord(ctx, id)
		if err != nil {
			return WrapStoreError(op, err, "record "+id)
		}
		collection = found
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, key := range keys {
		updates = append(updates, firestore.Update{Path: key, Value: fields[key]})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			err = ErrNotFound
		}
		return WrapStoreError(op, err, collection+"/"+id)
	}

	s.log.Debug().
		Str("collection", collection).
		Str("record_id", id).
		Strs("fields", keys).
		Msg("Record updated")
	return nil
}

// GetClient implements services.ClientStore.
func (s *FirestoreStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	const op = "GetClient"

	snap, err := s.client.Collection(CollectionClients).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			err = ErrNotFound
		}
		return nil, WrapStoreError(op, err, "client "+id)
	}
	return models.ClientFromMap(snap.Ref.ID, snap.Data()), nil
}

// FindCompanyProfile implements services.CompanyProfileStore. The match on country is exact.
func (s *FirestoreStore) FindCompanyProfile(ctx context.Context, country string) (*models.CompanyProfile, error) {
	const op = "FindCompanyProfile"

	iter := s.client.Collection(CollectionCompanyProfiles).
		Where("country", "==", strings.TrimSpace(country)).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, WrapStoreError(op, err, "country "+country)
	}
	return models.CompanyProfileFromMap(snap.Data()), nil
}

// findRecord looks the id up in every record collection and remembers where it was found.
func (s *FirestoreStore) findRecord(ctx context.Context, id string) (*firestore.DocumentSnapshot, string, error) {
	for _, collection := range s.recordCollections {
		snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return nil, "", err
		}

		s.mu.Lock()
		s.recordsIn[id] = collection
		s.mu.Unlock()
		return snap, collection, nil
	}
	return nil, "", ErrNotFound
}
