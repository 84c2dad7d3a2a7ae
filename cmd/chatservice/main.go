package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/quickmoney/chat-service/internal/api"
	"github.com/quickmoney/chat-service/internal/config"
	"github.com/quickmoney/chat-service/internal/events"
	"github.com/quickmoney/chat-service/internal/logger"
	"github.com/quickmoney/chat-service/internal/presence"
	"github.com/quickmoney/chat-service/internal/repository"
	"github.com/quickmoney/chat-service/internal/service"
	"github.com/quickmoney/chat-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(!cfg.App.Production())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	mc, err := repository.NewMongoClient(cfg.Mongo.URI)
	if err != nil {
		zlog.Fatalw("mongo init", "error", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	db := mc.Database(cfg.Mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(db.Collection(cfg.Mongo.MessagesCollection))
	userRepo := repository.NewMongoUserRepository(db.Collection(cfg.Mongo.UsersCollection))

	var pres *presence.Store
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		pres = presence.NewStore(rdb, cfg.Redis.Prefix)
	}

	dispatcher := events.NewDispatcher(zlog)
	svc := service.NewChatService(msgRepo, userRepo, dispatcher, zlog, cfg.App.BroadcastOnSend)
	wsrv := ws.NewServer(svc, pres, zlog)
	dispatcher.Subscribe(wsrv.OnMessagePersisted)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.Enabled() {
		instanceID := uuid.NewString()
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, instanceID)
		defer func() { _ = producer.Close() }()

		// Relay locally-originated events to siblings; events that
		// arrived from Kafka carry a foreign instance id and are not
		// re-published.
		dispatcher.Subscribe(func(ctx context.Context, ev events.MessagePersisted) {
			if ev.InstanceID != "" {
				return
			}
			if err := producer.Publish(ctx, ev); err != nil {
				zlog.Errorw("kafka publish", "error", err)
			}
		})

		consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, instanceID, zlog)
		defer func() { _ = consumer.Close() }()
		go consumer.Run(ctx, dispatcher)
	}

	app := api.NewServer(cfg, svc, wsrv, pres, zlog)

	go func() {
		if err := app.Listen(":" + cfg.App.PortString()); err != nil {
			zlog.Fatalw("server listen", "error", err)
		}
	}()
	zlog.Infow("chat-service started", "port", cfg.App.Port, "env", cfg.App.Env)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	zlog.Info("chat-service stopped")
}
