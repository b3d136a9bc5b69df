package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/nimasrn/customer-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrDuplicateCustomer  = errors.New("customer id already exists")
	ErrEmptyCustomerBatch = errors.New("customer batch is empty")
)

// customerColumns is the fixed projection of the read path.
const customerColumns = "id, first_name, last_name, company, city, country, phone_1, phone_2, email, subscription_date, website"

// upsertColumns are the columns refreshed when an import re-writes an
// existing customer_id.
var upsertColumns = []string{
	"first_name", "last_name", "company", "city", "country",
	"phone_1", "phone_2", "email", "subscription_date", "website",
}

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

// List returns customers matching the filter, projecting the fixed column
// set. Country and name-prefix predicates are skipped when absent; ordering
// defaults to first_name, last_name ascending.
func (r *CustomerRepository) List(ctx context.Context, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&CustomerEntity{})

	if len(f.Countries) > 0 {
		q = q.Where("country IN ?", f.Countries)
	}
	if f.FirstNamePrefix != nil && *f.FirstNamePrefix != "" {
		q = q.Where("first_name LIKE ?", *f.FirstNamePrefix+"%")
	}
	if f.LastNamePrefix != nil && *f.LastNamePrefix != "" {
		q = q.Where("last_name LIKE ?", *f.LastNamePrefix+"%")
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := ""
	if f.Desc {
		dir = " DESC"
	}
	order := "first_name" + dir + ", last_name" + dir
	if f.OrderBy == model.OrderBySubscriptionDate {
		order = "subscription_date" + dir
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*CustomerEntity
	err := q.Select(customerColumns).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}

	return toCustomerModels(entities), total, nil
}

func (r *CustomerRepository) GetByCustomerID(ctx context.Context, customerID string) (*model.Customer, error) {
	var entity CustomerEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return toCustomerModel(&entity), nil
}

// UpsertBatch inserts the batch, refreshing existing rows keyed by
// customer_id. Used by the upsert import mode so re-running a file is
// idempotent.
func (r *CustomerRepository) UpsertBatch(ctx context.Context, customers []*model.Customer) error {
	if len(customers) == 0 {
		return ErrEmptyCustomerBatch
	}

	entities := toCustomerEntities(customers)

	return r.Write(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(&entities).
		Error
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&CustomerEntity{}).
		Count(&total).
		Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
