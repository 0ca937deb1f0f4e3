package app

import (
	"context"
	"fmt"

	"github.com/fadedpez/pokerscribe/internal/api"
	"github.com/fadedpez/pokerscribe/internal/config"
	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/extract"
	"github.com/fadedpez/pokerscribe/pkg/layout"
	"github.com/fadedpez/pokerscribe/pkg/notify/discord"
	"github.com/fadedpez/pokerscribe/pkg/ocr"
	"github.com/fadedpez/pokerscribe/pkg/pipeline"
	"github.com/fadedpez/pokerscribe/pkg/repositories/hand"
	"github.com/fadedpez/pokerscribe/pkg/scheduler"
	"github.com/fadedpez/pokerscribe/pkg/segment"
	"github.com/fadedpez/pokerscribe/pkg/snapshot"
	"github.com/fadedpez/pokerscribe/pkg/vision"
)

// App holds the components shared by the command line tools
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Repository hand.Repository
	Layout     *layout.RegionLayout
	Hub        *api.Hub
	Recorder   *pipeline.Recorder

	notifier    *discord.Notifier
	maintenance *scheduler.IndexMaintenanceScheduler
	engine      *ocr.Engine
	extractor   *extract.Extractor
}

// New wires storage, layout, notifications and the websocket hub. OCR is
// opened separately by Builder since not every tool needs it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))

	l := layout.Default()
	if cfg.LayoutPath != "" {
		loaded, err := layout.LoadFile(cfg.LayoutPath)
		if err != nil {
			return nil, err
		}
		l = loaded
	}

	repo, es, err := OpenRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		Layout:     l,
		Hub:        api.NewHub(logger),
	}
	a.Recorder = pipeline.NewRecorder(repo, logger, a.Hub)

	if es != nil {
		a.maintenance = scheduler.NewIndexMaintenanceScheduler(es, es.GetConfig().RotationPeriod, logger)
	}

	if cfg.DiscordToken != "" {
		session, err := discord.NewSession(cfg.DiscordToken)
		if err != nil {
			repo.Close()
			return nil, types.WrapError(types.ErrConfiguration, "failed to create Discord session", err)
		}
		a.notifier = discord.NewNotifier(session, cfg.DiscordChannelID, logger)
		a.Recorder.AddListener(a.notifier)
	}

	return a, nil
}

// OpenRepository opens the configured storage backend, mirrored into
// Elasticsearch when a URL is configured. The Elasticsearch repository is
// returned separately so its indices can be maintained.
func OpenRepository(ctx context.Context, cfg *config.Config) (hand.Repository, *hand.ElasticsearchRepository, error) {
	var (
		base hand.Repository
		err  error
	)
	switch cfg.StorageType {
	case config.StorageMemory:
		base = hand.NewMemoryRepository()
	case config.StorageSQLite:
		base, err = hand.NewSQLiteRepository(cfg.DatabasePath)
	case config.StoragePostgres:
		base, err = hand.NewPostgresRepository(ctx, cfg.DatabaseURL)
	default:
		err = fmt.Errorf("unsupported storage type %q", cfg.StorageType)
	}
	if err != nil {
		return nil, nil, types.WrapError(types.ErrDatabaseError, "failed to open repository", err)
	}

	if cfg.ElasticsearchURL == "" {
		return base, nil, nil
	}

	esConfig := hand.DefaultElasticsearchConfig()
	esConfig.URL = cfg.ElasticsearchURL
	esConfig.Username = cfg.ElasticsearchUser
	esConfig.Password = cfg.ElasticsearchPassword
	esConfig.IndexPrefix = cfg.ElasticsearchPrefix

	es, err := hand.NewElasticsearchRepository(ctx, base, esConfig)
	if err != nil {
		base.Close()
		return nil, nil, err
	}
	return es, es, nil
}

// Builder opens the OCR engine and returns a snapshot builder over the
// layout, along with the extractor for failure counts
func (a *App) Builder() (*snapshot.Builder, *extract.Extractor, error) {
	if a.extractor == nil {
		cfg := ocr.Config{
			TessdataPrefix: a.Config.TessdataPrefix,
			Language:       a.Config.OCRLanguage,
		}
		version, err := ocr.Check(cfg)
		if err != nil {
			return nil, nil, err
		}
		engine, err := ocr.NewEngine(cfg)
		if err != nil {
			return nil, nil, err
		}
		a.engine = engine
		a.extractor = extract.NewExtractor(a.Layout, vision.NewPreprocessor(), engine, extract.Options{Logger: a.Logger})
		a.Logger.Info("OCR engine ready: tesseract %s", version)
	}
	return snapshot.NewBuilder(a.extractor, a.Layout.Seats()), a.extractor, nil
}

// SegmentConfig returns the configured hand segmentation settings
func (a *App) SegmentConfig() segment.Config {
	return segment.Config{
		BoundaryThreshold: a.Config.BoundaryThreshold,
		MinFramesPerHand:  a.Config.MinFramesPerHand,
	}
}

// BatchConfig returns batch settings, with debug frames written when
// DebugFramesDir is set
func (a *App) BatchConfig() pipeline.BatchConfig {
	cfg := pipeline.BatchConfig{
		SampleRate: a.Config.SampleRate,
		Segment:    a.SegmentConfig(),
	}
	if a.extractor != nil {
		cfg.FieldFailures = a.extractor.Failures
	}
	if a.Config.DebugFramesDir != "" {
		cfg.OnFrame = vision.NewDebugWriter(a.Config.DebugFramesDir, a.Layout).Write
	}
	return cfg
}

// LiveConfig returns live capture settings using the OpenCV frame diff
func (a *App) LiveConfig() pipeline.LiveConfig {
	cfg := pipeline.DefaultLiveConfig()
	cfg.SampleInterval = a.Config.SampleInterval
	cfg.DiffThreshold = a.Config.DiffThreshold
	cfg.QueueSize = a.Config.QueueSize
	cfg.Similarity = vision.DiffRatio
	cfg.Segment = a.SegmentConfig()
	if a.extractor != nil {
		cfg.FieldFailures = a.extractor.Failures
	}
	return cfg
}

// Start connects notifications and starts index maintenance
func (a *App) Start(ctx context.Context) error {
	if a.notifier != nil {
		if err := a.notifier.Open(); err != nil {
			return err
		}
	}
	if a.maintenance != nil {
		a.maintenance.Start(ctx)
	}
	return nil
}

// Alert reports a fatal run error to the notification channel, if any
func (a *App) Alert(err error) {
	if a.notifier != nil {
		a.notifier.Alert(err)
	}
}

// Shutdown stops background work and releases every resource
func (a *App) Shutdown() {
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	a.Hub.Close()
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			a.Logger.Warn("Error closing Discord session: %v", err)
		}
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if err := a.Repository.Close(); err != nil {
		a.Logger.Warn("Error closing repository: %v", err)
	}
}
