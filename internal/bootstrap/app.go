package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"loginify/internal/config"
	"loginify/internal/model"
	mysqlClient "loginify/internal/platform/mysql"
	rabbitmqClient "loginify/internal/platform/rabbitmq"
	redisClient "loginify/internal/platform/redis"
	"loginify/internal/repository"
	"loginify/internal/worker"
)

// App owns every long-lived resource of the process. Redis and MQConn are
// nil when their features are disabled in config.
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.UserEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), gormLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	app.DB = db
	if err := db.AutoMigrate(&model.User{}, &model.UserEvent{}); err != nil {
		return nil, errors.Join(fmt.Errorf("auto migrate tables failed: %w", err), app.Close())
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis, cfg.App.Name)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		app.Redis = redisCli
		logger.Info("redis user cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.UserEventQueue)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		app.MQConn = mqConn

		eventRepo := repository.NewUserEventRepository(db)
		eventWorker := worker.NewUserEventWorker(mqConn, eventRepo, cfg.RabbitMQ.UserEventQueue, logger)
		if err := eventWorker.Start(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("start user event worker failed: %w", err), app.Close())
		}
		app.EventWorker = eventWorker
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
