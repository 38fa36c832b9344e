package main

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/castlemilk/regresponse/internal/blob"
	"github.com/castlemilk/regresponse/internal/config"
	"github.com/castlemilk/regresponse/internal/extraction"
	"github.com/castlemilk/regresponse/internal/generation"
	"github.com/castlemilk/regresponse/internal/inference"
	"github.com/castlemilk/regresponse/internal/pipeline"
	"github.com/castlemilk/regresponse/internal/retention"
	"github.com/castlemilk/regresponse/internal/store"
)

// app holds every long-lived dependency built from the configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	uploads  blob.Bucket
	outputs  blob.Bucket
	store    store.Store
	sweeper  *retention.Sweeper

	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if err := a.initBlobs(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initStore(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var model inference.Model
	if cfg.GenerationMode == generation.ModeReal {
		m, err := inference.New(ctx, cfg.InferenceConfig())
		if err != nil {
			// Generation falls back to the mock response without a model.
			logger.Error("inference provider unavailable, every response will use the mock template",
				zap.String("provider", cfg.InferenceProvider), zap.Error(err))
		} else {
			model = m
			if c, ok := m.(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}
	}

	a.pipeline = pipeline.New(
		extraction.NewExtractor(extraction.Capabilities{Docx: cfg.DocxEnabled}),
		generation.NewGenerator(cfg.GeneratorConfig(), model, logger.Named("generation")),
		logger.Named("pipeline"),
	)

	a.sweeper = retention.NewSweeper(cfg.RetentionTTL, cfg.RetentionInterval,
		map[string]blob.Bucket{"uploads": a.uploads, "generated": a.outputs},
		a.store, logger.Named("retention"))

	logger.Info("configured",
		zap.String("generation_mode", string(cfg.GenerationMode)),
		zap.String("inference_provider", cfg.InferenceProvider),
		zap.String("model_id", cfg.InferenceModelID),
		zap.Bool("docx", cfg.DocxEnabled),
		zap.String("store", cfg.StoreBackend),
		zap.String("blob", cfg.BlobBackend),
		zap.Duration("retention_ttl", cfg.RetentionTTL),
	)
	return a, nil
}

func (a *app) initBlobs(ctx context.Context) error {
	switch a.cfg.BlobBackend {
	case config.BlobGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		a.closers = append(a.closers, client)
		bucket := client.Bucket(a.cfg.GCSBucket)
		a.uploads = blob.NewGCS(bucket, "uploads/")
		a.outputs = blob.NewGCS(bucket, "generated/")
	default:
		uploads, err := blob.NewDir(a.cfg.UploadDir)
		if err != nil {
			return err
		}
		outputs, err := blob.NewDir(a.cfg.OutputDir)
		if err != nil {
			return err
		}
		a.uploads, a.outputs = uploads, outputs
	}
	return nil
}

func (a *app) initStore(ctx context.Context) error {
	switch a.cfg.StoreBackend {
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, a.cfg.GCPProject)
		if err != nil {
			return fmt.Errorf("create firestore client: %w", err)
		}
		a.closers = append(a.closers, client)
		a.store = store.NewFirestoreStore(client)
	default:
		a.logger.Info("using in-memory submission store")
		a.store = store.NewMemoryStore()
	}
	return nil
}

// Close releases clients in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
