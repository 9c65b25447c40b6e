package main

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cryptchat/internal/config"
	"cryptchat/internal/keystore"
	messageRepo "cryptchat/internal/repository/message"
	userRepo "cryptchat/internal/repository/user"
	"cryptchat/internal/service/conversation"
	"cryptchat/internal/service/credential"
	redisSvc "cryptchat/internal/service/redis"
	"cryptchat/internal/service/server"
	"cryptchat/internal/service/session"
	"cryptchat/internal/utils/log"
)

func main() {
	cfg := config.LoadConfig()
	defer log.Sync()

	mongoDBClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("connecting to mongo failed", zap.Error(err))
	}

	db := mongoDBClient.Database(cfg.DatabaseName)
	ctx := context.Background()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})

	key, err := keystore.NewKeyStore(cfg.KeyFilePath).EnsureKey()
	if err != nil {
		log.Fatal("loading encryption key failed", zap.Error(err))
	}

	users := userRepo.NewMongoRepo(db)
	messages := messageRepo.NewMongoRepo(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal("creating user indexes failed", zap.Error(err))
	}
	if err := messages.EnsureIndexes(ctx); err != nil {
		log.Fatal("creating message indexes failed", zap.Error(err))
	}

	srv := server.NewHttpServer(
		cfg.ListenAddr,
		cfg.SyncPeriod,
		credential.NewService(users),
		conversation.NewService(messages, users, key),
		session.NewService(redisSvc.NewRedis(rdb), cfg.SessionTTL),
	)

	log.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := srv.Run(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
