package model

import "time"

// DefaultCountries is the country set the reader applies when a caller
// passes no explicit filter.
var DefaultCountries = []string{"Puerto Rico", "Switzerland", "Italy", "Germany"}

type Customer struct {
	ID               int64      `json:"id"`
	CustomerID       string     `json:"customer_id,omitempty"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Company          string     `json:"company"`
	City             string     `json:"city"`
	Country          string     `json:"country"`
	Phone1           string     `json:"phone_1"`
	Phone2           string     `json:"phone_2"`
	Email            string     `json:"email"`
	SubscriptionDate *time.Time `json:"subscription_date"`
	Website          string     `json:"website"`
}

func (Customer) TableName() string { return "customers" }

type CustomerOrder string

const (
	// OrderByName sorts by first_name then last_name.
	OrderByName CustomerOrder = "name"
	// OrderBySubscriptionDate sorts by subscription_date.
	OrderBySubscriptionDate CustomerOrder = "subscription_date"
)

type CustomerFilter struct {
	Countries       []string
	FirstNamePrefix *string
	LastNamePrefix  *string
	OrderBy         CustomerOrder
	Desc            bool
	Limit           int
	Offset          int
}
