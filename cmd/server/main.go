/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the restaurant POS server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), apply flag overrides
  2. Initialize logger
  3. Open the store (SQLite or MongoDB)
  4. Connect the event publisher (RabbitMQ, or no-op)
  5. Create generator, auth service, API handler, router
  6. Start the report refresh scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides SQLITE_PATH)
           Use ":memory:" for in-memory database
  -env     .env file to load (default: .env, skipped when missing)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close publisher and database connection
  5. Exit

EXAMPLES:
  # Run with file database
  JWT_SECRET=dev ./server -db="./data/pos.db"

  # Run against MongoDB
  STORE_DRIVER=mongo MONGODB_URI=mongodb://localhost:27017 JWT_SECRET=dev ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/restaurant-pos/api"
	"github.com/warp/restaurant-pos/auth"
	"github.com/warp/restaurant-pos/config"
	"github.com/warp/restaurant-pos/events"
	"github.com/warp/restaurant-pos/logging"
	"github.com/warp/restaurant-pos/sales"
	"github.com/warp/restaurant-pos/store/mongo"
	"github.com/warp/restaurant-pos/store/sqlite"
)

// store is what main needs from either backend.
type store interface {
	api.Store
	Close() error
}

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides SQLITE_PATH)")
	envFile := flag.String("env", ".env", ".env file to load")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.SQLitePath = *dbPath
	}

	log, err := logging.New(cfg.LogConfig())
	if err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	// Initialize store
	st, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer st.Close()

	pub := openPublisher(cfg, log)
	defer pub.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize tokens")
	}

	gen := sales.NewGenerator(st, st,
		sales.WithLocation(loc),
		sales.WithLogger(log.WithField("component", "generator")))
	handler := api.NewHandler(st, gen, auth.NewService(st, tokens), pub, log)

	// Create router
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Origins(),
		DevMode:        cfg.DevMode,
	})

	scheduler := api.NewReportScheduler(gen, pub, log)
	scheduler.CheckInterval = cfg.ReportRefreshInterval
	scheduler.Enabled = cfg.ReportRefreshEnabled
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"store":    cfg.StoreDriver,
			"timezone": loc.String(),
			"dev_mode": cfg.DevMode,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	scheduler.Stop()

	log.Info("Server stopped")
}

func openStore(cfg *config.Config) (store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		return mongo.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB)
	default:
		return sqlite.New(cfg.SQLitePath)
	}
}

// openPublisher falls back to a no-op publisher when the broker is not
// configured or not reachable.
func openPublisher(cfg *config.Config, log logrus.FieldLogger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Noop{}
	}
	pub, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.WithError(err).Warn("Event broker unavailable, events disabled")
		return events.Noop{}
	}
	return pub
}
