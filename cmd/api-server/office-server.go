package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"officecrm/config"
	"officecrm/db"
	"officecrm/db/migrations"
	"officecrm/internal/auth"
	"officecrm/internal/events"
	"officecrm/internal/handlers"
	"officecrm/internal/logging"
	"officecrm/internal/metrics"
	"officecrm/internal/observability"
	"officecrm/models"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "office-server",
		Short: "Office rental CRM API server",
		Long:  "HTTP API for tenants, offices, contracts, payments, maintenance requests and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_FILE)")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		sweepCmd(),
		createUserCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if !logging.SetLevelFromString(cfg.Log.Level) {
		logging.Op().Warn("unknown log level, keeping info", "level", cfg.Log.Level)
	}
	return cfg, nil
}

// openStorage подключается к базе и, если включено, применяет миграции.
func openStorage(ctx context.Context, cfg *config.Config, opts ...db.Option) (*db.Storage, error) {
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.AutoMigrate {
		if err := migrations.Run(conn.DB, cfg.Database.Driver); err != nil {
			conn.Close()
			return nil, err
		}
	}
	opts = append(opts, db.WithLockTimeout(cfg.Database.LockTimeout))
	return db.NewStorage(conn, opts...), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	telemetry, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRate:  cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logging.Op().Warn("telemetry shutdown", "error", err)
		}
	}()

	store, err := openStorage(ctx, cfg, db.WithTracerProvider(telemetry.TracerProvider()))
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		revoker = auth.NewRedisRevoker(client)
	} else {
		logging.Op().Info("redis not configured, logout does not revoke tokens")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Broker != "" {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	h := handlers.NewHandler(store, handlers.Deps{
		Tokens:  tokens,
		Hasher:  auth.NewArgon2Hasher(auth.DefaultArgon2Params),
		Revoker: revoker,
		Events:  publisher,
		Metrics: metrics.New(cfg.Metrics.Namespace),
	})
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Verifier:  tokens,
		Tracing:   telemetry.HTTPMiddleware,
		AccessLog: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Op().Info("starting server", "addr", cfg.Server.Addr, "driver", store.Driver())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Op().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := db.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			return migrations.Run(conn.DB, cfg.Database.Driver)
		},
	}
}

// sweepCmd запускается внешним планировщиком, например cron.
func sweepCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark unpaid payments past their due date as overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := models.Today()
			if asOf != "" {
				d, err := models.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				day = d
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.SweepOverduePayments(cmd.Context(), day)
			if err != nil {
				return err
			}
			if cfg.Kafka.Broker != "" && n > 0 {
				publisher := events.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
				defer publisher.Close()
				events.Emit(cmd.Context(), publisher, events.New(events.PaymentsOverdueSwept, 0, 0,
					map[string]any{"asOf": day, "updated": n}))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d payment(s) marked overdue as of %s\n", n, day)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep date YYYY-MM-DD (default today)")
	return cmd
}

func createUserCmd() *cobra.Command {
	var (
		phone    string
		password string
		role     string
		tenantID int
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a login account, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone == "" || password == "" {
				return errors.New("--phone and --password are required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStorage(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			hash, err := auth.NewArgon2Hasher(auth.DefaultArgon2Params).Hash(password)
			if err != nil {
				return err
			}
			u := &models.User{Phone: phone, PasswordHash: hash, Role: models.Role(role)}
			if tenantID > 0 {
				u.TenantID = &tenantID
			}
			if err := store.CreateUser(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %d\n", u.Role, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "login phone")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, staff or tenant")
	cmd.Flags().IntVar(&tenantID, "tenant-id", 0, "tenant id for tenant accounts")
	return cmd
}
