package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ledgerdoc/internal/config"
	"ledgerdoc/internal/imaging"
	"ledgerdoc/internal/sink"
	"ledgerdoc/internal/store"
	"ledgerdoc/pkg/services"
)

// backend bundles the stores every command reads from.
type backend struct {
	records  services.RecordStore
	clients  services.ClientStore
	profiles services.CompanyProfileStore
	close    func() error
}

// openBackend opens the record store selected by STORE_BACKEND.
func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		fs, err := store.NewFirestoreStore(ctx, store.FirestoreConfig{
			ProjectID:  cfg.GoogleCloudProject,
			DatabaseID: cfg.FirestoreDatabase,
		})
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("project", cfg.GoogleCloudProject).
			Str("database", cfg.FirestoreDatabase).
			Msg("Using Firestore record store")
		return &backend{records: fs, clients: fs, profiles: fs, close: fs.Close}, nil
	default:
		fx, err := store.LoadFixture(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", cfg.FixturePath).Msg("Using fixture record store")
		return &backend{records: fx, clients: fx, profiles: fx, close: func() error { return nil }}, nil
	}
}

// newImageTranscoder routes http(s) references to an HTTP fetcher and object references to
// object storage when it is configured.
func newImageTranscoder(cfg *config.Config) (*imaging.Transcoder, error) {
	router := &imaging.Router{HTTP: imaging.NewHTTPFetcher(cfg.ImageFetchTimeout)}
	if cfg.HasObjectStore() {
		client, err := imaging.NewMinioClient(cfg.GetObjectStoreConfig())
		if err != nil {
			return nil, err
		}
		router.Object = imaging.NewObjectFetcher(client, cfg.ObjectStoreBucket)
	}

	transcoder := imaging.NewTranscoder(router)
	transcoder.Concurrency = cfg.ImageConcurrency
	return transcoder, nil
}

// newSink returns the export destination: the EXPORT_BUCKET when uploading, a directory otherwise.
func newSink(cfg *config.Config, upload bool, outputDir string) (services.Sink, error) {
	if !upload {
		return sink.NewDirSink(outputDir), nil
	}
	if cfg.ExportBucket == "" {
		return nil, fmt.Errorf("--upload requires EXPORT_BUCKET to be set")
	}

	client, err := imaging.NewMinioClient(cfg.GetObjectStoreConfig())
	if err != nil {
		return nil, err
	}
	return sink.NewObjectSink(client, cfg.ExportBucket, "exports"), nil
}

// createContextWithTimeout creates a context that is canceled on timeout or on SIGINT/SIGTERM
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
