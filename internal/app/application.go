package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"classboard/internal/agenda"
	"classboard/internal/api"
	"classboard/internal/auth"
	"classboard/internal/config"
	"classboard/internal/database"
	"classboard/internal/hub"
	"classboard/internal/router"
	"classboard/internal/websocket"
	pkgdatabase "classboard/pkg/database"
)

// Application owns every component explicitly; there is no module-level
// mutable state anywhere in the process.
type Application struct {
	config     *config.Config
	store      *database.Store
	registry   *websocket.Registry
	broadcast  *hub.Hub
	httpServer *http.Server
}

// NewApplication builds the component graph in dependency order:
// Store → Registry → Router → Hub → Auth → Agenda → WebSocket → API → HTTP.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbConfig := &pkgdatabase.Config{
		DatabasePath:    cfg.Database.Path,
		MaxConnections:  10,
		ConnMaxLifetime: cfg.Database.Timeout,
		ConnMaxIdleTime: cfg.Database.Timeout / 3,
	}
	store, err := database.NewStore(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	if err := pkgdatabase.NewMigrationManager(store.DB()).Apply(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	log.Println("Database migrations applied")

	registry := websocket.NewRegistry()
	messageRouter := router.NewRouter(registry)
	broadcast := hub.NewHub(registry, messageRouter)

	verifier := auth.NewVerifier(cfg.Auth.TokenSecret)
	agendaService := agenda.NewService(store)
	wsHandler := websocket.NewHandler(broadcast, verifier, &websocket.Config{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		BufferSize:   cfg.WebSocket.BufferSize,
	})
	apiServer := api.NewServer(agendaService, store, registry, verifier, wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      apiServer.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      store,
		registry:   registry,
		broadcast:  broadcast,
		httpServer: httpServer,
	}, nil
}

// Start launches the hub and the HTTP server.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting classboard on %s", app.httpServer.Addr)

	if err := app.broadcast.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		app.broadcast.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Println("classboard started")
		return nil
	case <-ctx.Done():
		app.broadcast.Stop()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse order: HTTP → Hub → Store.
func (app *Application) Stop(ctx context.Context) error {
	log.Println("Shutting down classboard")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := app.broadcast.Stop(); err != nil {
		log.Printf("Hub shutdown error: %v", err)
	}
	if err := app.store.Close(); err != nil {
		log.Printf("Store shutdown error: %v", err)
	}

	log.Println("classboard shutdown complete")
	return nil
}

// Addr returns the server address for external connections.
func (app *Application) Addr() string {
	return app.httpServer.Addr
}
