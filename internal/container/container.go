package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/galactic-postbox/config"
	repo "github.com/oksasatya/galactic-postbox/internal/domain/repository"
	"github.com/oksasatya/galactic-postbox/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/galactic-postbox/internal/infrastructure/postgres"
	"github.com/oksasatya/galactic-postbox/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Optional clients stay nil when their backend is not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	memStore    *memory.Store
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return logger
}

func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetMemoryStore(s *memory.Store)          { memStore = s }
func GetMemoryStore() *memory.Store           { return memStore }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetGCS(s *storage.Client)                { gcsClient = s }
func GetGCS() *storage.Client                 { return gcsClient }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func GetJWT() *helpers.JWTManager {
	if jwtManager == nil {
		c := GetConfig()
		jwtManager = helpers.NewJWTManager(c.JWTSecret, c.JWTTTL)
	}
	return jwtManager
}

// Repositories groups the store implementations selected at startup.
type Repositories struct {
	Users     repo.UserRepository
	Mail      repo.MailRepository
	Addresses repo.AddressRepository
}

// GetRepositories returns the in-memory repositories when a memory store was
// set, otherwise the Postgres ones.
func GetRepositories() Repositories {
	if memStore != nil {
		return Repositories{
			Users:     memory.NewUserRepository(memStore),
			Mail:      memory.NewMailRepository(memStore),
			Addresses: memory.NewAddressRepository(memStore),
		}
	}
	return Repositories{
		Users:     pginfra.NewUserRepository(pgPool),
		Mail:      pginfra.NewMailRepository(pgPool),
		Addresses: pginfra.NewAddressRepository(pgPool),
	}
}

// Reset clears every singleton. Tests use it between engines.
func Reset() {
	cfg, logger, pgPool, memStore = nil, nil, nil, nil
	redisClient, gcsClient, jwtManager, rabbitPub, esClient = nil, nil, nil, nil, nil
}
