package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/logger"
	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/postgres"
	"github.com/YelzhanWeb/pizzeria-core/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/kitchen"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/notification"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/order"
	"github.com/YelzhanWeb/pizzeria-core/internal/app/pricing"
	"github.com/YelzhanWeb/pizzeria-core/internal/config"
	"github.com/YelzhanWeb/pizzeria-core/internal/interfaces"
	"github.com/shopspring/decimal"

	amqpAdapter "github.com/YelzhanWeb/pizzeria-core/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/pizzeria-core/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "server", "Run mode: server, subscriber")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	room := flag.String("room", interfaces.RoomCocina, "Room to subscribe to (subscriber mode)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lgr := logger.New(*mode)

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	switch *mode {
	case "server":
		runServer(ctx, cfg, mqConn, lgr)
	case "subscriber":
		runSubscriber(ctx, mqConn, lgr, *room)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runServer(ctx context.Context, cfg *config.Config, mqConn rabbitmq.Connection, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	orderRepo := postgres.NewOrderRepository(db)
	menuRepo := postgres.NewMenuRepository(db)
	statsRefresher := postgres.NewCustomerStatsRefresher(db)
	broadcaster := rabbitmq.NewBroadcaster(mqConn)

	dispatcher := notification.NewDispatcher(notificationConfig(cfg.Notifications), broadcaster, lgr)

	board := kitchen.NewService(
		time.Duration(cfg.Kitchen.UrgentThresholdMinutes)*time.Minute,
		time.Duration(cfg.Kitchen.CriticalThresholdMinutes)*time.Minute,
		time.Duration(cfg.Kitchen.TickIntervalSeconds)*time.Second,
		dispatcher,
		lgr,
	)
	dispatcher.SetStore(board)

	if err := board.Warm(ctx, orderRepo); err != nil {
		log.Fatalf("Failed to warm kitchen board: %v", err)
	}
	go board.Start(ctx)

	pricingSvc := pricing.NewService(menuRepo, decimal.NewFromFloat(cfg.Pricing.RemovedIngredientDiscount))
	orderSvc := order.NewService(orderRepo, pricingSvc, statsRefresher, dispatcher, lgr)

	orderHandler := httpAdapter.NewOrderHandler(orderSvc, lgr)
	kitchenHandler := httpAdapter.NewKitchenHandler(board, lgr)
	menuHandler := httpAdapter.NewMenuHandler(menuRepo, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", orderHandler.CreateOrder)
	mux.HandleFunc("PATCH /orders/{id}/status", orderHandler.ChangeStatus)
	mux.HandleFunc("PUT /orders/{id}/items", orderHandler.UpdateItems)
	mux.HandleFunc("GET /orders/{id}/history", orderHandler.GetHistory)
	mux.HandleFunc("GET /kitchen/orders", kitchenHandler.GetBoard)
	mux.HandleFunc("GET /menu/extras", menuHandler.ListExtras)

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Server started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down server", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
		// Drain whatever the debounce window buffered before exiting.
		dispatcher.Flush()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runSubscriber(ctx context.Context, mqConn rabbitmq.Connection, lgr logger.Logger, room string) {
	consumer := rabbitmq.NewConsumer(mqConn)
	handler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification subscriber started", "startup", map[string]interface{}{
		"room": room,
	})

	go func() {
		if err := consumer.ConsumeRoom(ctx, room, handler.HandleBroadcast); err != nil && ctx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming broadcasts", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down subscriber", "shutdown", nil)
}

func notificationConfig(cfg config.NotificationConfig) notification.Config {
	types := make(map[string]notification.TypeConfig, len(cfg.Types))
	for name, tc := range cfg.Types {
		types[name] = notification.TypeConfig{Enabled: tc.Enabled, Volume: tc.Volume}
	}
	return notification.Config{
		Debounce:         time.Duration(cfg.DebounceMs) * time.Millisecond,
		MinAudioInterval: time.Duration(cfg.MinAudioIntervalMs) * time.Millisecond,
		QueueLimit:       cfg.QueueLimit,
		Types:            types,
	}
}
