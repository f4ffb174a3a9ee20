// Package bootstrap provides dependency initialization for the media
// studio API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/nmoreras/media-studio-api/internal/config"
	"github.com/nmoreras/media-studio-api/internal/extract"
	"github.com/nmoreras/media-studio-api/internal/generation"
	"github.com/nmoreras/media-studio-api/internal/replicate"
	"github.com/nmoreras/media-studio-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Client    replicate.Client
	Submitter *generation.Submitter
	Store     storage.Store
	Uploader  storage.Uploader
	Extractor *extract.Downloader
	PollOpts  generation.PollOptions
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	clientOpts := []replicate.ClientOption{
		replicate.WithToken(cfg.ProviderToken),
	}
	if cfg.ProviderBaseURL != "" {
		clientOpts = append(clientOpts, replicate.WithBaseURL(cfg.ProviderBaseURL))
	}

	client, err := replicate.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create provider client: %w", err)
	}

	store, uploader, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Client:    client,
		Submitter: generation.NewSubmitter(client, logger),
		Store:     store,
		Uploader:  uploader,
		Extractor: extract.NewDownloader(cfg.YtDlpPath),
		PollOpts: generation.PollOptions{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
		},
	}

	return deps, nil
}

// initStorage creates the media store, with S3 uploads when configured.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Store, storage.Uploader, error) {
	local, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaQuotaBytes())
	if err != nil {
		return nil, nil, fmt.Errorf("create media store: %w", err)
	}

	if !cfg.S3Enabled() {
		logger.Info("local media store configured",
			slog.String("dir", cfg.MediaDir),
			slog.Int64("quota_mb", cfg.MediaQuotaMB),
		)
		return local, nil, nil
	}

	s3Store, err := storage.NewS3Store(local, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create S3 media store: %w", err)
	}

	logger.Info("S3 media store configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return s3Store, s3Store, nil
}
