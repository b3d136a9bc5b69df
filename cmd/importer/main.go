package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/customer-gateway/internal/config"
	"github.com/nimasrn/customer-gateway/internal/importer"
	"github.com/nimasrn/customer-gateway/internal/repository"
	"github.com/nimasrn/customer-gateway/pkg/logger"
	"github.com/nimasrn/customer-gateway/pkg/pg"
	"github.com/nimasrn/customer-gateway/pkg/prom"
	"github.com/nimasrn/customer-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	// COPY runs over a raw connection, gorm stays out of the hot path
	sqlDB, err := pg.NewSQLConn(writeConf)
	if err != nil {
		logger.Error("failed opening sql connection", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	customerRepo := repository.NewCustomerRepository(db)
	importRunRepo := repository.NewImportRunRepository(db)

	copyLoader := importer.NewCopyLoader(sqlDB)
	upsertLoader := importer.NewUpsertLoader(customerRepo, config.Get().ImportBatchSize)
	imp := importer.NewImporter(copyLoader, upsertLoader)

	idempotencyConfig := importer.DefaultIdempotencyConfig()
	if ttl := config.Get().ImportLockTTL; ttl > 0 {
		idempotencyConfig.LockTTL = ttl
	}
	if ttl := config.Get().ImportProcessedTTL; ttl > 0 {
		idempotencyConfig.ProcessedTTL = ttl
	}
	idempotencyService := importer.NewIdempotencyService(redisAdap, idempotencyConfig)

	service, err := importer.NewService(redisAdap, imp, importRunRepo, idempotencyService)
	if err != nil {
		logger.Error("failed to create the import service", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start import service", "error", err)
		}
	}()

	select {
	case <-c:
		service.Stop()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
