package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agenda/agenda/internal/config"
	"github.com/agenda/agenda/internal/domain/attendance"
	"github.com/agenda/agenda/internal/domain/availability"
	"github.com/agenda/agenda/internal/domain/booking"
	"github.com/agenda/agenda/internal/domain/registry"
	"github.com/agenda/agenda/internal/platform/auth"
	"github.com/agenda/agenda/internal/platform/db"
	"github.com/agenda/agenda/internal/platform/lock"
	"github.com/agenda/agenda/internal/platform/metrics"
	"github.com/agenda/agenda/internal/platform/middleware"
	"github.com/agenda/agenda/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agenda-server",
		Short: "Clinic agenda API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(clinicCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agenda API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return runServer(migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "Apply pending migrations to the default clinic before serving")
	return cmd
}

// migrationFiles prefers a migrations directory on disk and falls back to
// the set embedded in the binary.
func migrationFiles(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	return migrations.Files
}

// withPool loads config, opens a pool and hands both to fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}
	cmd.PersistentFlags().String("clinic", "", "Clinic identifier (defaults to DEFAULT_CLINIC)")
	cmd.PersistentFlags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR, then the embedded set)")

	resolve := func(cmd *cobra.Command, cfg *config.Config) (string, fs.FS, error) {
		clinic, _ := cmd.Flags().GetString("clinic")
		dir, _ := cmd.Flags().GetString("dir")
		if clinic == "" {
			clinic = cfg.DefaultClinic
		}
		if !db.ValidClinicID(clinic) {
			return "", nil, fmt.Errorf("invalid clinic identifier: %s", clinic)
		}
		if dir == "" {
			dir = cfg.MigrationsDir
		}
		return db.SchemaName(clinic), migrationFiles(dir), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				schema, files, err := resolve(cmd, cfg)
				if err != nil {
					return err
				}
				fmt.Printf("Running migrations on schema: %s\n", schema)
				count, err := db.NewMigrator(pool, files).Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Printf("Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				schema, files, err := resolve(cmd, cfg)
				if err != nil {
					return err
				}
				statuses, err := db.NewMigrator(pool, files).Status(ctx, schema)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				fmt.Printf("Migration status for schema: %s\n", schema)
				fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				fmt.Println("---------- ---------------------------------------- ---------- --------------------")
				for _, s := range statuses {
					status := "pending"
					appliedAt := ""
					if s.Applied {
						status = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recently applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				schema, files, err := resolve(cmd, cfg)
				if err != nil {
					return err
				}
				version, err := db.NewMigrator(pool, files).Down(ctx, schema)
				if err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if version == 0 {
					fmt.Printf("No applied migrations in schema %s.\n", schema)
					return nil
				}
				fmt.Printf("Rolled back migration %d in schema %s.\n", version, schema)
				return nil
			})
		},
	})

	return cmd
}

func clinicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinic",
		Short: "Manage clinics",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a clinic schema and apply all migrations to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				fmt.Printf("Creating clinic schema: %s\n", db.SchemaName(name))
				if err := db.CreateClinicSchema(ctx, pool, name, migrationFiles(cfg.MigrationsDir)); err != nil {
					return err
				}
				fmt.Println("Clinic created successfully.")
				return nil
			})
		},
	}
	createCmd.Flags().String("name", "", "Clinic identifier (letters, digits, underscore)")

	cmd.AddCommand(createCmd)
	return cmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// newLocker picks the booking critical section: Redis when REDIS_URL is set,
// the in-process keyed mutex otherwise. The returned close func is never nil.
func newLocker(cfg *config.Config, logger zerolog.Logger) (lock.Locker, func() error, error) {
	if !cfg.UsesRedisLock() {
		return lock.NewKeyedMutex(cfg.BookingLockWait), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	return lock.NewRedisLocker(client, cfg.BookingLockTTL, cfg.BookingLockWait, logger), client.Close, nil
}

// services bundles everything routes need; built once per process.
type services struct {
	registry     *registry.Service
	availability *availability.Service
	booking      *booking.Service
	attendance   *attendance.Service
}

func newServices(pool db.Querier, locker lock.Locker, m *metrics.AgendaMetrics, logger zerolog.Logger) *services {
	availSvc := availability.NewService(availability.NewRepoPG(pool))
	return &services{
		registry: registry.NewService(
			registry.NewSpecialtyRepoPG(pool),
			registry.NewInsurerRepoPG(pool),
		),
		availability: availSvc,
		booking: booking.NewService(
			availSvc,
			booking.NewRepoPG(pool),
			locker,
			m,
			logger,
		),
		attendance: attendance.NewService(attendance.NewRepoPG(pool)),
	}
}

func registerRoutes(api *echo.Group, svcs *services) {
	registry.NewHandler(svcs.registry).RegisterRoutes(api)
	availability.NewHandler(svcs.availability).RegisterRoutes(api)
	booking.NewHandler(svcs.booking).RegisterRoutes(api)
	attendance.NewHandler(svcs.attendance).RegisterRoutes(api)
}

func runServer(migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if migrate {
		if err := db.CreateClinicSchema(ctx, pool, cfg.DefaultClinic, migrationFiles(cfg.MigrationsDir)); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate default clinic")
		}
		logger.Info().Str("clinic", cfg.DefaultClinic).Msg("migrations applied")
	}

	locker, closeLocker, err := newLocker(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up booking lock")
	}
	defer closeLocker()
	logger.Info().Bool("redis", cfg.UsesRedisLock()).Dur("wait", cfg.BookingLockWait).Msg("booking lock ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	agendaMetrics := metrics.NewAgendaMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, db.ClinicHeader},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(db.PoolHealth(pool)))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))

	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	apiV1.Use(db.ClinicMiddleware(pool, cfg.DefaultClinic))

	registerRoutes(apiV1, newServices(pool, locker, agendaMetrics, logger))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
