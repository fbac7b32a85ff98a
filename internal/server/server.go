package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"retail-ledger/internal/config"
	"retail-ledger/internal/events"
	"retail-ledger/internal/handler"
	"retail-ledger/internal/journal"
	"retail-ledger/internal/logging"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/seed"
	"retail-ledger/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router    *mux.Router
	server    *http.Server
	journal   journal.Journal
	publisher events.Publisher
	logger    *slog.Logger
	port      string
}

// NewServer wires the ledger, its durable journal and event publisher, and
// the HTTP routes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	ctx := context.Background()

	j, err := openJournal(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	publisher := events.Nop()
	if cfg.NATSURL != "" {
		natsPublisher, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			j.Close()
			return nil, err
		}
		publisher = natsPublisher
	}

	store := repository.NewStore(logger)
	users := repository.NewUserStore(logger)

	if cfg.SeedSampleData {
		if err := seed.Load(ctx, store, users, j, logger); err != nil {
			j.Close()
			publisher.Close()
			return nil, err
		}
	}

	directoryService := service.NewDirectoryService(users, logger)
	accountService := service.NewAccountService(store, users, logger)
	ledgerService := service.NewLedgerService(store, users, logger,
		service.WithJournal(j),
		service.WithPublisher(publisher),
		service.WithRecentLimit(cfg.StatisticsRecentLimit),
	)

	userHandler := handler.NewUserHandler(directoryService)
	accountHandler := handler.NewAccountHandler(accountService, directoryService)
	transactionHandler := handler.NewTransactionHandler(ledgerService)

	router := mux.NewRouter()
	router.Use(requestLogger(logger))
	if cfg.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
		if err != nil {
			j.Close()
			publisher.Close()
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", cfg.RateLimit, err)
		}
		router.Use(rateLimit(limiter.New(memory.NewStore(), rate)))
	}

	router.HandleFunc("/health", healthHandler(j)).Methods("GET")
	router.HandleFunc("/users", userHandler.Register).Methods("POST")

	api := router.NewRoute().Subrouter()
	api.Use(basicAuth(directoryService))

	// User routes
	api.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	api.HandleFunc("/me", userHandler.Me).Methods("GET")
	api.HandleFunc("/me", userHandler.UpdateMe).Methods("PATCH")
	api.HandleFunc("/users/{user_id}/accounts", accountHandler.ListAccountsByOwner).Methods("GET")

	// Account routes
	api.HandleFunc("/accounts", accountHandler.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts/{account_id}", accountHandler.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{account_id}/transactions", transactionHandler.History).Methods("GET")

	// Transaction routes
	api.HandleFunc("/transactions", transactionHandler.Transfer).Methods("POST")
	api.HandleFunc("/transactions", transactionHandler.AllTransactions).Methods("GET")
	api.HandleFunc("/statistics", transactionHandler.Statistics).Methods("GET")

	return &Server{
		router:    router,
		journal:   j,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (journal.Journal, error) {
	switch cfg.JournalDriver {
	case config.JournalFile:
		return journal.OpenFile(cfg.JournalFilePath, logger)
	case config.JournalPostgres:
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return journal.OpenPostgres(ctx, cfg.GetDBConnectionString(), logger)
	default:
		return journal.Nop(), nil
	}
}

func healthHandler(j journal.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := j.Ping(ctx); err != nil {
			logging.FromContext(r.Context(), nil).Warn("Journal unavailable", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "journal unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop drains HTTP traffic first, then closes the publisher and the journal.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var shutdownErr error
	if s.server != nil {
		shutdownErr = s.server.Shutdown(ctx)
	}
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("Failed to close event publisher", "error", err)
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Error("Failed to close journal", "error", err)
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer builds the server and starts listening on cfg.ServerPort. Port
// "0" picks a free port and silences logging.
func StartServer(cfg *config.Config) (*Server, string, error) {
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		logger = logging.Discard()
	} else {
		logger = logging.New(nil, cfg.LogLevel)
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.Stop(context.Background())
		return nil, "", err
	}

	return server, port, nil
}
