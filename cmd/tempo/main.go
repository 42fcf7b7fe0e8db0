package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tempo/internal/auth"
	"tempo/internal/config"
	"tempo/internal/core"
	apphttp "tempo/internal/http"
	"tempo/internal/log"
	"tempo/internal/services"
	"tempo/internal/storage"
	"tempo/internal/store"
	"tempo/internal/store/memory"
)

func main() {
	// Local overrides from .env, if present.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	var (
		sessions store.SessionStore
		expenses store.ExpenseStore
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.StoreTimeout)
		if err != nil {
			logger.Error("Failed to open SQLite store", log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		sessions, expenses = repo, repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		mem := memory.New()
		sessions, expenses = mem, mem
		logger.Info("Initialized memory backend")
	}

	var gate *auth.Gate
	if cfg.AuthSecret != "" {
		gate = auth.NewGate(auth.Config{
			Email:        cfg.AuthEmail,
			PasswordHash: cfg.AuthPasswordHash,
			Secret:       cfg.AuthSecret,
			TokenTTL:     cfg.SessionTTL,
		})
		logger.Info("Login gate enabled", "email", cfg.AuthEmail)
	} else {
		logger.Warn("Login gate disabled, API is open")
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Sessions:  sessions,
		Expenses:  expenses,
		Reports:   services.NewReportService(sessions, expenses),
		Gate:      gate,
		Companies: core.NewCompanySet(cfg.Companies),
		Rates:     core.NewRateTable(cfg.DefaultRates, cfg.FallbackRate),
		Logger:    logger.WithComponent(log.ComponentHTTP),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting tempo server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
