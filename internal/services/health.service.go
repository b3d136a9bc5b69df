package services

import (
	"context"

	"github.com/nimasrn/customer-gateway/pkg/redis"
)

type HealthService struct {
	cache redis.RedisAdapter
}

func NewHealthService(cache redis.RedisAdapter) *HealthService {
	return &HealthService{cache: cache}
}

func (s *HealthService) Get() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Client().Ping(context.Background()).Err()
}
