package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/config"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/render"
	"github.com/mmynk/foodgram/internal/service"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
	"github.com/mmynk/foodgram/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup()
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))
	slog.Info("Configuration loaded", "config", cfg)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// A font that cannot be loaded or rendered is fatal.
	font, err := loadFont(cfg)
	if err != nil {
		return err
	}
	slog.Info("PDF font loaded", "family", font.Family, "path", cfg.PDFFontPath)

	if cfg.UsesDevSecret() {
		slog.Warn("JWT_SECRET is not set, signing tokens with the development secret")
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store, cfg.AdminEmails...)
	metrics := middleware.NewMetrics()

	// Auth runs first so the logging and metrics interceptors see the user.
	opts := connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.LoggingInterceptor(),
		metrics.Interceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(service.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, slog.Default()), opts))
	mux.Handle(service.NewUserServiceHandler(service.NewUserService(store), opts))
	mux.Handle(service.NewCatalogServiceHandler(service.NewCatalogService(store), opts))
	mux.Handle(service.NewRecipeServiceHandler(service.NewRecipeService(store), opts))

	shopping := service.NewShoppingListService(store, render.New(font), metrics)
	service.RegisterDownloadRoutes(mux, jwtManager, shopping)
	mux.Handle("GET /metrics", metrics.Handler())

	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		return fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.Handle("/", staticHandler(staticDir))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadFont returns the configured TrueType font, or the embedded Go Regular font.
func loadFont(cfg *config.Config) (*render.Font, error) {
	if cfg.PDFFontPath == "" {
		return render.DefaultFont()
	}
	return render.LoadFont(cfg.PDFFontName, cfg.PDFFontPath)
}

// staticHandler serves the frontend, falling back to index.html for unknown
// paths so client-side routes resolve.
func staticHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown API paths are not pages.
		if strings.HasPrefix(r.URL.Path, "/foodgram.v1.") || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}
