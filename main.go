package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/cinelog/cinelog-engine/pkg/config"
	"github.com/cinelog/cinelog-engine/pkg/database"
	"github.com/cinelog/cinelog-engine/pkg/handlers"
	"github.com/cinelog/cinelog-engine/pkg/mediaid"
	"github.com/cinelog/cinelog-engine/pkg/middleware"
	"github.com/cinelog/cinelog-engine/pkg/repositories"
	"github.com/cinelog/cinelog-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	importCSV := flag.String("import-csv", "", "import a watched-movies CSV export instead of serving HTTP")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Host),
		zap.String("media_identifier", cfg.MediaIdentifier.Endpoint))

	if err := database.RunMigrations(cfg.Database.URL(), cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repo := repositories.NewWatchedMovieRepository(db)
	identifier := mediaid.NewClient(&cfg.MediaIdentifier, logger)
	importer := services.NewImportService(repo, identifier, logger)

	if *importCSV != "" {
		runCSVImport(ctx, importer, logger, *importCSV)
		return
	}

	mux := http.NewServeMux()

	watchedHandler := handlers.NewWatchedHandler(importer, logger)
	watchedHandler.RegisterRoutes(mux)

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting cinelog-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// runCSVImport drives the batch importer once and exits. Per-row
// failures are reported in the summary and do not fail the process;
// only an unprocessable file does.
func runCSVImport(ctx context.Context, importer services.ImportService, logger *zap.Logger, path string) {
	csvImporter := services.NewCSVImportService(importer, logger)

	summary, err := csvImporter.Run(ctx, path)
	if err != nil {
		logger.Fatal("CSV import failed", zap.String("path", path), zap.Error(err))
	}

	logger.Info("CSV import finished",
		zap.Int("processed", summary.Processed),
		zap.Int("failed", len(summary.Failed)))
}

// newLogger builds the process logger for the given environment.
func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
