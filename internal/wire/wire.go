// Package wire provides dependency injection for the enrollment tool.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	cliadapter "github.com/example/enroll/internal/adapters/cli"
	"github.com/example/enroll/internal/adapters/filesystem"
	"github.com/example/enroll/internal/adapters/memory"
	"github.com/example/enroll/internal/adapters/postgres"
	"github.com/example/enroll/internal/adapters/s3sheet"
	"github.com/example/enroll/internal/adapters/sheetapi"
	"github.com/example/enroll/internal/adapters/sqlite"
	"github.com/example/enroll/internal/app"
	"github.com/example/enroll/internal/config"
	"github.com/example/enroll/internal/core/random"
	"github.com/example/enroll/internal/db"
	"github.com/example/enroll/internal/logging"
	"github.com/example/enroll/internal/metrics"
	"github.com/example/enroll/internal/ports/primary"
	"github.com/example/enroll/internal/ports/secondary"
	"github.com/example/enroll/internal/rostercodec"
)

// Options are the process-level settings taken from global flags.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Services is the assembled object graph for one session.
type Services struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Store      *app.RosterStore
	Session    *app.Session
	Enrollment primary.EnrollmentService
}

// Close flushes the logger and releases the backend.
func (s *Services) Close() error {
	err := s.Store.Close()
	_ = s.Logger.Sync()
	return err
}

var (
	opts     Options
	services *Services
	initErr  error
	once     sync.Once
)

// SetOptions records global flag values. It must be called before the first
// service accessor; later calls have no effect on built services.
func SetOptions(o Options) {
	opts = o
}

// EnrollmentService returns the singleton EnrollmentService instance.
func EnrollmentService() (primary.EnrollmentService, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return services.Enrollment, nil
}

// Metrics returns the singleton metrics collectors.
func Metrics() (*metrics.Metrics, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return services.Metrics, nil
}

// Close releases the singleton services if they were built.
func Close() error {
	if services == nil {
		return nil
	}
	return services.Close()
}

// EnrollmentAdapterWithOutput returns a new EnrollmentAdapter writing to out.
// Each call creates a new adapter; adapters are stateless translators.
func EnrollmentAdapterWithOutput(out io.Writer) (*cliadapter.EnrollmentAdapter, error) {
	svc, err := EnrollmentService()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewEnrollmentAdapter(svc, out), nil
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		initErr = err
		return
	}

	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Verbose: opts.Verbose,
	})
	if err != nil {
		initErr = err
		return
	}

	services, initErr = Build(context.Background(), cfg, logger, metrics.New())
}

// Build assembles the object graph from a validated configuration: the
// backend, the roster store, the seeded random source and the session with
// every trial roster loaded.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	backend, err := NewBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	src, err := random.New(cfg.Random.Generator, cfg.Random.Seed)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	store := app.NewRosterStore(backend, logger, m)
	session := app.NewSession(ctx, store, app.SessionOptions{
		Trials:     cfg.TrialList(),
		Institutes: cfg.Institutes,
		Scheme:     cfg.Scheme(),
		Source:     src,
	})
	logger.Debug("session started",
		zap.String("session_id", session.ID),
		zap.String("backend", backend.Name()),
		zap.Uint64("seed", cfg.Random.Seed),
	)

	return &Services{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Store:      store,
		Session:    session,
		Enrollment: app.NewEnrollmentService(session, logger, m),
	}, nil
}

// NewBackend constructs the roster backend selected by cfg.Storage.Driver.
// Remote credentials are resolved here, once per session.
func NewBackend(ctx context.Context, cfg *config.Config) (secondary.RosterBackend, error) {
	st := cfg.Storage

	switch st.Driver {
	case "", config.DriverCSV, config.DriverXLSX:
		format := rostercodec.FormatCSV
		if st.Driver == config.DriverXLSX {
			format = rostercodec.FormatXLSX
		}
		backend, err := filesystem.NewRosterFileBackend(st.DataDir, format)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.DriverMemory:
		return memory.NewBackend(), nil
	case config.DriverSQLite:
		database, err := db.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return sqlite.NewRosterRepository(database), nil
	case config.DriverPostgres:
		database, err := db.OpenPostgres(st.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return postgres.NewRosterRepository(database), nil
	case config.DriverS3:
		backend, err := s3sheet.New(ctx, s3sheet.Config{
			Region:          st.S3.Region,
			Bucket:          st.S3.Bucket,
			Prefix:          st.S3.Prefix,
			Endpoint:        st.S3.Endpoint,
			AccessKeyID:     st.S3.AccessKeyID,
			SecretAccessKey: st.S3.SecretAccessKey,
			PathStyle:       st.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.DriverSheetAPI:
		backend, err := sheetapi.New(sheetapi.Config{
			BaseURL: st.SheetAPI.BaseURL,
			Token:   st.SheetAPI.Token,
			Sheets:  st.SheetAPI.Sheets,
			Timeout: st.SheetAPI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", st.Driver)
	}
}
