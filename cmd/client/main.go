package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cryptchat/internal/config"
	"cryptchat/internal/keystore"
	messageRepo "cryptchat/internal/repository/message"
	userRepo "cryptchat/internal/repository/user"
	"cryptchat/internal/service/app"
	"cryptchat/internal/service/conversation"
	"cryptchat/internal/service/credential"
	"cryptchat/internal/utils/log"
)

func main() {
	cfg := config.LoadConfig()

	// tview owns the terminal; keep log output out of its way
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"cryptchat-client.log"}
	logCfg.ErrorOutputPaths = []string{"cryptchat-client.log"}
	log.Replace(zap.Must(logCfg.Build()))
	defer log.Sync()

	mongoDBClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		log.Fatal("connecting to mongo failed", zap.Error(err))
	}

	db := mongoDBClient.Database(cfg.DatabaseName)
	ctx := context.Background()

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

	credentials := credential.NewService(users)
	conversations := conversation.NewService(messages, users, key)

	a := app.NewApp(credentials, conversations, cfg.SyncPeriod)
	if err := a.Run(ctx); err != nil {
		log.Fatal("running app failed", zap.Error(err))
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
