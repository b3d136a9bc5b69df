package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/logger"
	"github.com/nimasrn/customer-gateway/pkg/prom"
	"github.com/nimasrn/customer-gateway/pkg/redis"
)

var (
	ErrInvalidOrder   = errors.New("unknown order field")
	ErrNotFound       = errors.New("customer not found")
	ErrInvalidCountry = errors.New("country filter entries cannot be empty")
)

const customersRevisionKey = "customers:rev"

type CustomerRepository interface {
	List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error)
	GetByCustomerID(ctx context.Context, customerID string) (*model.Customer, error)
}

type CustomerService struct {
	customerRepo CustomerRepository
	cache        redis.RedisAdapter
	cacheTTL     time.Duration
}

// NewCustomerService builds the read-side service. cache may be nil, in
// which case every query goes to the database.
func NewCustomerService(customerRepo CustomerRepository, cache redis.RedisAdapter, cacheTTL time.Duration) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
	}
}

type customerPage struct {
	Items []*model.Customer `json:"items"`
	Total int64             `json:"total"`
}

// List returns customers for the filter. An empty country list falls back
// to the default fixed set. Results are cached per filter and customers
// revision, so a completed import naturally invalidates them.
func (s *CustomerService) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	if len(f.Countries) == 0 {
		f.Countries = model.DefaultCountries
	}
	for _, c := range f.Countries {
		if strings.TrimSpace(c) == "" {
			return nil, 0, ErrInvalidCountry
		}
	}

	switch f.OrderBy {
	case model.OrderByName, model.OrderBySubscriptionDate, "":
	default:
		return nil, 0, ErrInvalidOrder
	}

	cacheKey, cacheable := s.cacheKey(f)
	if cacheable {
		if page, ok := s.fromCache(cacheKey); ok {
			prom.IncCounterVec(prom.SystemQueries, prom.MetricQueryCacheOutcomes, "hit")
			return page.Items, page.Total, nil
		}
		prom.IncCounterVec(prom.SystemQueries, prom.MetricQueryCacheOutcomes, "miss")
	}

	items, total, err := s.customerRepo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	prom.AddCounter(prom.SystemQueries, prom.MetricQueryRowsReturned, float64(len(items)))

	if cacheable {
		s.toCache(cacheKey, customerPage{Items: items, Total: total})
	}

	return items, total, nil
}

func (s *CustomerService) GetByCustomerID(ctx context.Context, customerID string) (*model.Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, ErrNotFound
	}

	customer, err := s.customerRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// cacheKey folds the filter and the current customers revision into one
// key. Returns cacheable=false when the cache is disabled or the revision
// cannot be read.
func (s *CustomerService) cacheKey(f model.CustomerFilter) (string, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return "", false
	}

	rev := "0"
	if b, err := s.cache.Get(customersRevisionKey); err == nil {
		rev = string(b)
	} else if err != redis.NilError {
		return "", false
	}

	fp := ""
	if f.FirstNamePrefix != nil {
		fp = *f.FirstNamePrefix
	}
	lp := ""
	if f.LastNamePrefix != nil {
		lp = *f.LastNamePrefix
	}

	key := fmt.Sprintf("customers:list:%s|%s|%s|%s|%v|%d|%d|rev=%s",
		strings.Join(f.Countries, ","), fp, lp, f.OrderBy, f.Desc, f.Limit, f.Offset, rev)
	return key, true
}

func (s *CustomerService) fromCache(key string) (customerPage, bool) {
	var page customerPage

	data, err := s.cache.Get(key)
	if err != nil {
		if err != redis.NilError {
			logger.Warn("customer cache read failed", "error", err)
		}
		return page, false
	}
	if err := json.Unmarshal(data, &page); err != nil {
		logger.Warn("customer cache entry corrupt, dropping", "error", err)
		_ = s.cache.Del(key)
		return page, false
	}
	return page, true
}

func (s *CustomerService) toCache(key string, page customerPage) {
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, data, s.cacheTTL); err != nil {
		logger.Warn("customer cache write failed", "error", err)
	}
}
