package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/domain/monitoring"
	"github.com/vitalwatch/vitalwatch/internal/platform/auth"
	"github.com/vitalwatch/vitalwatch/internal/platform/db"
	"github.com/vitalwatch/vitalwatch/internal/platform/middleware"
	"github.com/vitalwatch/vitalwatch/internal/platform/notification"
	"github.com/vitalwatch/vitalwatch/internal/platform/scorer"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vitalwatch-server",
		Short: "Biometric early-warning monitoring server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the monitoring API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

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

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

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
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// backfillInterval is how often unenriched readings are retried.
const backfillInterval = 5 * time.Minute

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Scoring service client
	scoringClient := scorer.NewClient(cfg.ScorerBaseURL, time.Duration(cfg.ScorerTimeoutSeconds)*time.Second)

	// Notifications
	templates := notification.NewTemplateEngine()
	notifyMgr := notification.NewManager(&logSender{logger: logger}, &logSMSSender{logger: logger}, templates)
	notifyHandler := notification.NewHandler(notifyMgr)
	notifyGroup := apiV1.Group("", auth.RequireRole("admin"))
	notifyHandler.RegisterRoutes(notifyGroup)

	// Monitoring
	readingRepo := monitoring.NewReadingRepoPG(pool)
	alertRepo := monitoring.NewAlertRepoPG(pool)
	monSvc := monitoring.NewService(readingRepo, alertRepo, &scorerAdapter{client: scoringClient}, logger)
	monSvc.SetCalibrationTarget(cfg.CalibrationReadings)
	monSvc.SetNotifier(&alertNotifier{manager: notifyMgr, recipient: cfg.AlertRecipient})
	monHandler := monitoring.NewHandler(monSvc)
	monHandler.RegisterRoutes(apiV1)

	// Enrichment backfill
	backfillCtx, stopBackfill := context.WithCancel(ctx)
	defer stopBackfill()
	go func() {
		ticker := time.NewTicker(backfillInterval)
		defer ticker.Stop()
		for {
			select {
			case <-backfillCtx.Done():
				return
			case <-ticker.C:
				if n := monSvc.ReprocessUnenriched(backfillCtx, 100); n > 0 {
					logger.Info().Int("count", n).Msg("backfilled unenriched readings")
				}
			}
		}
	}()

	// Health endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
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
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// scorerAdapter adapts the HTTP scoring client to the monitoring.Scorer
// interface, translating between the storage model and the wire payload.
type scorerAdapter struct {
	client *scorer.Client
}

func (a *scorerAdapter) Score(ctx context.Context, patientID uuid.UUID, r *monitoring.BiometricReading) (*monitoring.Assessment, error) {
	resp, err := a.client.Score(ctx, patientID.String(), payloadFromReading(r))
	if err != nil {
		return nil, err
	}
	level, err := parseAlertLevel(resp.AlertLevel)
	if err != nil {
		return nil, err
	}
	anomalies := resp.Anomalies
	if anomalies == nil {
		anomalies = []string{}
	}
	return &monitoring.Assessment{Level: level, Anomalies: anomalies}, nil
}

func (a *scorerAdapter) ReadinessScore(ctx context.Context, patientID uuid.UUID) (*monitoring.Readiness, error) {
	resp, err := a.client.Readiness(ctx, patientID.String())
	if err != nil {
		return nil, err
	}
	baseline := monitoring.StatusStable
	if strings.EqualFold(resp.BaselineStatus, string(monitoring.StatusCalibrating)) {
		baseline = monitoring.StatusCalibrating
	}
	return &monitoring.Readiness{Score: resp.Score, Baseline: baseline}, nil
}

// payloadFromReading builds the scoring wire payload. The resting heart rate
// is preferred over the instantaneous one, and skin temperature is expressed
// as an offset from 37.0.
func payloadFromReading(r *monitoring.BiometricReading) *scorer.VitalsPayload {
	p := &scorer.VitalsPayload{
		Timestamp:          r.Timestamp,
		HRVRMSSD:           r.HRV,
		SpO2:               r.SpO2,
		RespiratoryRate:    r.RespiratoryRate,
		StepCount:          r.StepCount,
		ActiveCalories:     r.ActiveCalories,
		SleepDurationHours: r.SleepDurationHours,
		ECGRhythm:          r.ECGRhythm,
		TemperatureTrend:   r.TemperatureTrend,
	}
	if r.RestingHeartRate != nil {
		p.HeartRateResting = r.RestingHeartRate
	} else {
		p.HeartRateResting = r.HeartRate
	}
	if r.Temperature != nil {
		offset := *r.Temperature - 37.0
		p.SkinTempOffset = &offset
	}
	return p
}

func parseAlertLevel(s string) (monitoring.AlertLevel, error) {
	switch strings.ToUpper(s) {
	case string(monitoring.LevelGreen):
		return monitoring.LevelGreen, nil
	case string(monitoring.LevelYellow):
		return monitoring.LevelYellow, nil
	case string(monitoring.LevelRed):
		return monitoring.LevelRed, nil
	default:
		return "", fmt.Errorf("%w: unknown alert level %q", scorer.ErrUnavailable, s)
	}
}

// alertNotifier bridges persisted alerts to the notification manager using
// the level-specific templates.
type alertNotifier struct {
	manager   *notification.Manager
	recipient string
}

func (n *alertNotifier) NotifyAlert(ctx context.Context, a *monitoring.HealthAlert) error {
	data := map[string]string{
		"patient_id": a.PatientID.String(),
		"anomalies":  strings.Join(a.Anomalies, ", "),
	}
	_, err := n.manager.SendFromTemplate(ctx, templateForLevel(a.Level), data, n.recipient)
	return err
}

func templateForLevel(level monitoring.AlertLevel) string {
	if level == monitoring.LevelRed {
		return "red-alert"
	}
	return "yellow-alert"
}

// logSender and logSMSSender are stand-in delivery backends that record the
// notification in the server log. Real SMTP or SMS gateways plug in behind
// the same interfaces.
type logSender struct {
	logger zerolog.Logger
}

func (s *logSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("email notification")
	return nil
}

type logSMSSender struct {
	logger zerolog.Logger
}

func (s *logSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("body", body).
		Msg("sms notification")
	return nil
}
