package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gurudharsan/weighease/internal/api/handlers"
	"github.com/gurudharsan/weighease/internal/api/middleware"
	"github.com/gurudharsan/weighease/internal/config"
	"github.com/gurudharsan/weighease/internal/logger"
	"github.com/gurudharsan/weighease/internal/store"
	"github.com/gurudharsan/weighease/internal/store/memstore"
	"github.com/gurudharsan/weighease/internal/store/mongostore"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags; flags win over the environment.
	var (
		port     = flag.String("port", cfg.Port, "HTTP server port")
		mongoURI = flag.String("mongo-uri", cfg.MongoURI, "Mongo connection URI (or set MONGO_URI env); empty runs in-memory")
	)
	flag.Parse()

	log := logger.New()

	ctx := context.Background()

	// Pick the entry store. Without a Mongo URI the server still runs,
	// holding entries in memory for the lifetime of the process.
	var entryStore store.EntryStore
	if *mongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		ms, err := mongostore.Connect(connectCtx, *mongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to entry store")
		}
		defer ms.Close(ctx)
		entryStore = ms
		log.Info().Str("database", cfg.MongoDatabase).Str("collection", cfg.MongoCollection).Msg("Connected to Mongo entry store")
	} else {
		entryStore = memstore.New()
		log.Warn().Msg("No MONGO_URI configured - entries are held in memory only")
	}

	entriesHandler := handlers.NewEntriesHandler(entryStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/entries", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			entriesHandler.ListEntries(w, r)
		case http.MethodPost:
			entriesHandler.CreateEntry(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/entries/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/entries/")
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Entry serial is required")
			return
		}

		// POST /api/entries/{serial}/bill
		if serial, ok := strings.CutSuffix(rest, "/bill"); ok {
			if r.Method != http.MethodPost {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			entriesHandler.BillEntry(w, r, serial)
			return
		}

		switch r.Method {
		case http.MethodPut:
			entriesHandler.UpdateEntry(w, r, rest)
		case http.MethodDelete:
			entriesHandler.DeleteEntry(w, r, rest)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
