package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"stayledger/internal/audit"
	"stayledger/internal/auth"
	"stayledger/internal/notify"
	"stayledger/internal/observability/metrics"
	"stayledger/internal/statement/application"
	statementpostgres "stayledger/internal/statement/infrastructure/postgres"
	statementinterfaces "stayledger/internal/statement/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	propertyChecker := auth.NewPropertyChecker(db)
	auditRepo := audit.NewRepository(db)

	statementRepo := statementpostgres.NewStatementRepository(db)
	bookingRepo := statementpostgres.NewBookingRepository(db)
	settingsRepo := statementpostgres.NewSettingsRepository(db)

	statementService, err := application.NewStatementService(statementRepo, bookingRepo, settingsRepo, cfg.TenantID, application.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("statement service error: %v", err)
	}

	mailer := notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	if !mailer.IsConfigured() {
		logger.Printf("smtp not configured; automated statement delivery is disabled")
	}

	statementHandler, err := statementinterfaces.NewStatementHandler(statementService, mailer, propertyChecker, auditRepo, logger)
	if err != nil {
		logger.Fatalf("statement handler error: %v", err)
	}

	automationCfg, err := application.LoadAutomationConfig()
	if err != nil {
		logger.Fatalf("statement automation config error: %v", err)
	}
	scheduler := application.NewScheduler(statementService, mailer, automationCfg, settingsRepo, logger)
	go scheduler.Start(context.Background())

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret, policy, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/statements", statementHandler)
	mux.Handle("/api/v1/statements/", statementHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL  string
	HTTPAddr     string
	TenantID     string
	JWTSecret    string
	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:  getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:     getenvDefault("HTTP_ADDR", ":8080"),
		TenantID:     getenvDefault("TENANT_ID", "tenant-demo"),
		JWTSecret:    getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SMTPAddr:     getenvDefault("SMTP_ADDR", ""),
		SMTPFrom:     getenvDefault("SMTP_FROM", ""),
		SMTPUsername: getenvDefault("SMTP_USERNAME", ""),
		SMTPPassword: getenvDefault("SMTP_PASSWORD", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
