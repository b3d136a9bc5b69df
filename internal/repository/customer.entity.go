package repository

import (
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
)

// CustomerEntity mirrors the customers relation. The table carries two
// identifiers on purpose: id is the serial primary key the read side
// projects, customer_id is the external identifier CSV imports write to.
type CustomerEntity struct {
	ID               int64      `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	CustomerID       string     `db:"customer_id"       gorm:"column:customer_id;not null;unique"`
	FirstName        string     `db:"first_name"        gorm:"column:first_name"`
	LastName         string     `db:"last_name"         gorm:"column:last_name"`
	Company          string     `db:"company"           gorm:"column:company"`
	City             string     `db:"city"              gorm:"column:city"`
	Country          string     `db:"country"           gorm:"column:country"`
	Phone1           string     `db:"phone_1"           gorm:"column:phone_1"`
	Phone2           string     `db:"phone_2"           gorm:"column:phone_2"`
	Email            string     `db:"email"             gorm:"column:email"`
	SubscriptionDate *time.Time `db:"subscription_date" gorm:"column:subscription_date"`
	Website          string     `db:"website"           gorm:"column:website"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(m *model.Customer) *CustomerEntity {
	if m == nil {
		return nil
	}
	return &CustomerEntity{
		ID:               m.ID,
		CustomerID:       m.CustomerID,
		FirstName:        m.FirstName,
		LastName:         m.LastName,
		Company:          m.Company,
		City:             m.City,
		Country:          m.Country,
		Phone1:           m.Phone1,
		Phone2:           m.Phone2,
		Email:            m.Email,
		SubscriptionDate: m.SubscriptionDate,
		Website:          m.Website,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:               e.ID,
		CustomerID:       e.CustomerID,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		Company:          e.Company,
		City:             e.City,
		Country:          e.Country,
		Phone1:           e.Phone1,
		Phone2:           e.Phone2,
		Email:            e.Email,
		SubscriptionDate: e.SubscriptionDate,
		Website:          e.Website,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	if entities == nil {
		return nil
	}
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}

func toCustomerEntities(models []*model.Customer) []*CustomerEntity {
	if models == nil {
		return nil
	}
	entities := make([]*CustomerEntity, len(models))
	for i, m := range models {
		entities[i] = toCustomerEntity(m)
	}
	return entities
}
