package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v9"

	"groceryhub/internal/client"
	"groceryhub/internal/configuration"
	"groceryhub/internal/database"
	"groceryhub/internal/list"
	"groceryhub/internal/localstore"
	"groceryhub/internal/logger"
	"groceryhub/internal/notify"
	"groceryhub/internal/search"
	"groceryhub/internal/server"
)

func main() {
	if err := runApp(); err != nil {
		time.Sleep(10 * time.Second)
		os.Exit(1)
	}
}

func runApp() error {
	appContext := context.Background()
	logOutput := io.Writer(os.Stdout)
	appLogger := logger.NewLogger(logger.LevelInfo, logOutput)

	defer func() {
		if r := recover(); r != nil {
			appLogger.Errorf("APPLICATION CRASHED: %+v", r)
		}
	}()

	config, err := configuration.GetConfig("config.toml")
	if err != nil {
		appLogger.Error("Error getting configuration from config.toml:", err)
		return err
	}

	if config.LogToFile {
		logFile, err := os.OpenFile("groceryhub_backend.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			appLogger.Error("Error opening log file:", err)
			return err
		}
		defer func() {
			if err := logFile.Close(); err != nil {
				appLogger.Error("Error closing log file:", err)
			}
		}()
		logOutput = io.MultiWriter(logOutput, logFile)
	}
	appLogger = logger.NewLogger(config.LogLevel, logOutput)

	appLogger.Info("Connecting to DB at", config.DatabaseURI)
	dbConn, err := database.ConnectDB(appContext, config.DatabaseURI)
	if err != nil {
		appLogger.Error("Error connecting to DB:", err)
		return err
	}
	defer func() {
		if err := dbConn.Disconnect(appContext); err != nil {
			appLogger.Error("Error disconnecting from DB:", err)
		}
	}()
	db := database.Database{Database: dbConn.Database(database.Name)}

	var redisClient *redis.Client
	if config.RedisURI != "" {
		redisOpts, err := redis.ParseURL(config.RedisURI)
		if err != nil {
			appLogger.Error("Error parsing Redis URI:", err)
			return err
		}
		redisClient = redis.NewClient(redisOpts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("Error closing Redis client:", err)
			}
		}()
		appLogger.Info("Search caching enabled with Redis at", config.RedisURI)
	} else {
		appLogger.Info("Redis URI not set, search caching disabled")
	}

	appClient := client.Client{
		Client:         &http.Client{Timeout: 15 * time.Second},
		Redis:          redisClient,
		MaxiPaliURL:    config.MaxiPaliURL,
		MasxMenosURL:   config.MasxMenosURL,
		PushKey:        config.PushKey,
		SearchCacheTTL: config.SearchCacheTTL,
		Logger:         appLogger,
	}

	appLogger.Info("Using local fallback store at", config.LocalStorePath)
	lists := &list.Service{
		Remote: db,
		Local:  localstore.New(config.LocalStorePath),
		Notifier: notify.Dispatcher{
			DB:     db,
			Client: appClient,
			Logger: appLogger,
		},
		Logger: appLogger,
	}

	srv := server.Server{
		DB:     db,
		Client: appClient,
		Federator: search.Federator{
			Client: appClient,
			Logger: appLogger,
		},
		Lists:         lists,
		Logger:        appLogger,
		AuthSecretKey: config.AuthSecretKey,
	}

	httpSrv := &http.Server{
		Handler:      srv.Router(),
		Addr:         config.ServerAddress,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	appLogger.Info("Serving on", httpSrv.Addr)
	return httpSrv.ListenAndServe()
}
