package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/komunitas-inovasi/komunitas/config"
	mongorepo "github.com/komunitas-inovasi/komunitas/internal/adapters/mongo"
	redisstore "github.com/komunitas-inovasi/komunitas/internal/adapters/redis"
	"github.com/komunitas-inovasi/komunitas/internal/adapters/reaper"
	"github.com/komunitas-inovasi/komunitas/internal/adapters/registrantapi"
	"github.com/komunitas-inovasi/komunitas/internal/adapters/uploads"
	"github.com/komunitas-inovasi/komunitas/internal/i18n"
	"github.com/komunitas-inovasi/komunitas/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Backend     *registrantapi.Client
	Translator  *i18n.Translator
	Auth        *service.AuthService
	Registrants *service.RegistrantService
	// Properties, Uploads and Reaper are nil unless MongoDB is configured.
	Properties *service.PropertyService
	Uploads    *uploads.DiskStore
	Reaper     *service.UploadReaperService
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	MongoDB     *mongo.Database
	Logger      *slog.Logger
}

// NewServices wires adapters into services. Redis is required for admin sessions;
// MongoDB only for the property listings and the upload reaper.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := registrantapi.NewClient(registrantapi.Config{
		BaseURL:            cfg.Backend.APIURL,
		Timeout:            cfg.Backend.Timeout,
		MaxAttachmentBytes: cfg.Export.MaxAttachmentBytes,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create backend client: %w", err)
	}

	translator := i18n.NewTranslator(cfg.Locale.Default, logger)

	container := ServiceContainer{Backend: backend, Translator: translator}

	if cfg.IsHTTPServerEnabled() {
		if deps.RedisClient == nil {
			return ServiceContainer{}, errors.New("redis client is required for admin sessions")
		}
		container.Auth = service.NewAuthService(service.AuthServiceOptions{
			Gateway:  backend,
			Sessions: redisstore.NewSessionStoreWithPrefix(deps.RedisClient, cfg.Redis.KeyPrefix),
			Logger:   logger,
		})
		container.Registrants, err = service.NewRegistrantService(service.RegistrantServiceOptions{
			Source:                backend,
			Gateway:               backend,
			Labels:                translator.ExportLabels,
			AttachmentConcurrency: cfg.Export.AttachmentConcurrency,
			Logger:                logger,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("create registrant service: %w", err)
		}
	}

	if cfg.NeedsMongo() {
		if err := buildPropertyServices(&container, deps, logger); err != nil {
			return ServiceContainer{}, err
		}
	}

	return container, nil
}

func buildPropertyServices(container *ServiceContainer, deps *ServiceDeps, logger *slog.Logger) error {
	if deps.MongoDB == nil {
		return errors.New("mongo database is required for property listings")
	}
	cfg := deps.Config

	store, err := uploads.NewDiskStore(uploads.Options{
		Dir:          cfg.Uploads.Dir,
		PublicPrefix: cfg.Uploads.PublicPrefix,
		MaxBytes:     cfg.Uploads.MaxBytes,
		AllowedTypes: uploads.ImageTypes,
	})
	if err != nil {
		return fmt.Errorf("create upload store: %w", err)
	}
	repo := mongorepo.NewPropertyRepo(deps.MongoDB)

	container.Uploads = store
	container.Properties, err = service.NewPropertyService(service.PropertyServiceOptions{
		Repo:    repo,
		Uploads: store,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create property service: %w", err)
	}
	container.Reaper, err = service.NewUploadReaperService(service.UploadReaperServiceOptions{
		Properties: repo,
		Uploads:    store,
		MinAge:     cfg.Uploads.ReaperMinAge,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create upload reaper: %w", err)
	}
	return nil
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	RedisClient redis.UniversalClient
	MongoClient *mongo.Client
	Logger      *slog.Logger
}

// RunServicesWithShutdown runs the enabled services until SIGINT/SIGTERM or until one fails,
// then shuts everything down.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServices(ctx, cfg)
}

func runServices(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	started := 0

	if cfg.Config.IsHTTPServerEnabled() {
		server, err := NewHTTPServer(&HTTPServerConfig{
			Config:      cfg.Config,
			Services:    cfg.Services,
			RedisClient: cfg.RedisClient,
			MongoClient: cfg.MongoClient,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return serveHTTP(gctx, server, cfg.Config.HTTP.ShutdownTimeout, logger) })
		started++
	}

	if cfg.Config.IsReaperEnabled() {
		runner, err := newReaperRunner(cfg, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return runner.Run(gctx) })
		started++
	}

	if started == 0 {
		return errors.New("no services enabled")
	}

	err := g.Wait()
	logger.Info("services stopped")
	return err
}

func newReaperRunner(cfg *ServiceOrchestrationConfig, logger *slog.Logger) (*reaper.Runner, error) {
	svc := cfg.Services.Reaper
	if svc == nil {
		return nil, errors.New("reaper enabled but upload reaper service is not configured")
	}
	return reaper.NewRunner(reaper.RunnerOptions{
		Pass: func(ctx context.Context) error {
			_, err := svc.RunOnce(ctx)
			return err
		},
		Schedule:   cfg.Config.Uploads.ReaperSchedule,
		RunOnStart: cfg.Config.Uploads.ReaperRunOnStart,
		Logger:     logger,
	})
}

// serveHTTP runs server until ctx is done, then drains in-flight requests for up to timeout.
func serveHTTP(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
