package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/netsplit/netsplit/internal/auth"
	"github.com/netsplit/netsplit/internal/handler"
	"github.com/netsplit/netsplit/internal/identity"
	"github.com/netsplit/netsplit/internal/metrics"
	"github.com/netsplit/netsplit/internal/middleware"
	"github.com/netsplit/netsplit/internal/payment"
	"github.com/netsplit/netsplit/internal/service"
	"github.com/netsplit/netsplit/internal/storage/sqlite"
	"github.com/netsplit/netsplit/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/netsplit.db")
	port := getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	engineMetrics := metrics.New()

	// TODO: swap the static resolver and recording submitter for the
	// Farcaster lookup client and the on-chain transfer client once the
	// identity and payment services are deployed.
	var resolver identity.Resolver = identity.StaticResolver{}
	var payments payment.Submitter = &payment.Recorder{}

	groupSvc := service.NewGroupService(store, resolver, payments, engineMetrics)
	authSvc := service.NewAuthService(authenticator, jwtManager, slog.Default())

	mux := http.NewServeMux()
	mux.Handle("/api/", handler.New(groupSvc, authSvc, jwtManager).Routes())
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Add logging and CORS middleware
	loggedHandler := middleware.Logging(middleware.CORS(mux))

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := ":" + port
	slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
