package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"paperbase/internal/ai"
	"paperbase/internal/cache"
	"paperbase/internal/config"
	"paperbase/internal/model"
	mysqlClient "paperbase/internal/platform/mysql"
	rabbitmqClient "paperbase/internal/platform/rabbitmq"
	redisClient "paperbase/internal/platform/redis"
	"paperbase/internal/vector"
	"paperbase/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Index       vector.Index
	Embedder    ai.Embedder
	SearchCache *cache.SearchResultCache
	CacheWorker *worker.CacheInvalidationWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentText{},
		&model.Page{},
		&model.Chunk{},
		&model.EmbeddingRecord{},
		&model.Tag{},
		&model.DocumentTag{},
		&model.Note{},
		&model.NoteTag{},
		&model.NoteLink{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	searchCache := cache.NewSearchResultCache(redisCli, time.Duration(cfg.Redis.SearchTTLSeconds)*time.Second)
	cacheWorker := worker.NewCacheInvalidationWorker(mqConn, searchCache, cfg.RabbitMQ.DocumentEventQueue)
	if err := cacheWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start cache invalidation worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		Index:       vector.NewChromaIndex(cfg.Chroma),
		Embedder:    ai.NewEmbedder(cfg.Embedding),
		SearchCache: searchCache,
		CacheWorker: cacheWorker,
		StartedAt:   time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.CacheWorker != nil {
		a.CacheWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
