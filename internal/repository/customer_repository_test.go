package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func seedCustomers(t *testing.T, db *testDB) {
	t.Helper()
	ctx := context.Background()
	entities := []*CustomerEntity{
		{CustomerID: "c-1", FirstName: "Sheryl", LastName: "Baxter", Country: "Chile", SubscriptionDate: datePtr(2020, 8, 24)},
		{CustomerID: "c-2", FirstName: "Preston", LastName: "Lozano", Country: "Germany", SubscriptionDate: datePtr(2021, 4, 23)},
		{CustomerID: "c-3", FirstName: "Roy", LastName: "Berry", Country: "Italy", SubscriptionDate: datePtr(2020, 3, 25)},
		{CustomerID: "c-4", FirstName: "Anna", LastName: "Keller", Country: "Switzerland", SubscriptionDate: datePtr(2022, 1, 2)},
		{CustomerID: "c-5", FirstName: "Anna", LastName: "Zimmer", Country: "Germany", SubscriptionDate: nil},
	}
	for _, e := range entities {
		err := db.Write(ctx).Create(e).Error
		require.NoError(t, err)
	}
}

func TestCustomerRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db.DB)
	ctx := context.Background()
	seedCustomers(t, db)

	t.Run("filter by countries", func(t *testing.T) {
		customers, total, err := repo.List(ctx, model.CustomerFilter{
			Countries: model.DefaultCountries,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, customers, 4)
		for _, c := range customers {
			assert.NotEqual(t, "Chile", c.Country)
		}
	})

	t.Run("default order is first_name then last_name", func(t *testing.T) {
		customers, _, err := repo.List(ctx, model.CustomerFilter{
			Countries: []string{"Germany", "Switzerland"},
		})
		require.NoError(t, err)
		require.Len(t, customers, 3)
		assert.Equal(t, "Keller", customers[0].LastName)
		assert.Equal(t, "Zimmer", customers[1].LastName)
		assert.Equal(t, "Preston", customers[2].FirstName)
	})

	t.Run("descending name order applies to both columns", func(t *testing.T) {
		customers, _, err := repo.List(ctx, model.CustomerFilter{
			Countries: []string{"Germany", "Switzerland"},
			OrderBy:   model.OrderByName,
			Desc:      true,
		})
		require.NoError(t, err)
		require.Len(t, customers, 3)
		assert.Equal(t, "Preston", customers[0].FirstName)
		assert.Equal(t, "Zimmer", customers[1].LastName)
		assert.Equal(t, "Keller", customers[2].LastName)
	})

	t.Run("order by subscription date desc", func(t *testing.T) {
		customers, _, err := repo.List(ctx, model.CustomerFilter{
			Countries: []string{"Chile", "Germany", "Italy"},
			OrderBy:   model.OrderBySubscriptionDate,
			Desc:      true,
		})
		require.NoError(t, err)
		require.Len(t, customers, 4)
		assert.Equal(t, "Preston", customers[0].FirstName)
		assert.Equal(t, "Sheryl", customers[1].FirstName)
		assert.Equal(t, "Roy", customers[2].FirstName)
	})

	t.Run("first name prefix", func(t *testing.T) {
		prefix := "An"
		customers, total, err := repo.List(ctx, model.CustomerFilter{
			FirstNamePrefix: &prefix,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, c := range customers {
			assert.Equal(t, "Anna", c.FirstName)
		}
	})

	t.Run("last name prefix narrows further", func(t *testing.T) {
		first := "An"
		last := "Ze"
		customers, total, err := repo.List(ctx, model.CustomerFilter{
			FirstNamePrefix: &first,
			LastNamePrefix:  &last,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, customers)
	})

	t.Run("no match yields empty set", func(t *testing.T) {
		customers, total, err := repo.List(ctx, model.CustomerFilter{
			Countries: []string{"Norway"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, customers)
	})

	t.Run("pagination", func(t *testing.T) {
		page1, total, err := repo.List(ctx, model.CustomerFilter{Limit: 2, Offset: 0})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, page1, 2)

		page2, _, err := repo.List(ctx, model.CustomerFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})
}

func TestCustomerRepository_GetByCustomerID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db.DB)
	ctx := context.Background()
	seedCustomers(t, db)

	t.Run("existing customer", func(t *testing.T) {
		customer, err := repo.GetByCustomerID(ctx, "c-1")
		require.NoError(t, err)
		assert.Equal(t, "Sheryl", customer.FirstName)
		assert.Equal(t, "Baxter", customer.LastName)
		require.NotNil(t, customer.SubscriptionDate)
		assert.Equal(t, "2020-08-24", customer.SubscriptionDate.Format("2006-01-02"))
	})

	t.Run("missing subscription date comes back nil", func(t *testing.T) {
		customer, err := repo.GetByCustomerID(ctx, "c-5")
		require.NoError(t, err)
		assert.Nil(t, customer.SubscriptionDate)
	})

	t.Run("null columns read back as empty strings", func(t *testing.T) {
		err := db.Write(ctx).Exec(
			"INSERT INTO customers (customer_id, first_name, last_name, company, phone_2) VALUES (?, ?, ?, NULL, NULL)",
			"c-6", "Elena", "Faust",
		).Error
		require.NoError(t, err)

		customer, err := repo.GetByCustomerID(ctx, "c-6")
		require.NoError(t, err)
		assert.Equal(t, "", customer.Company)
		assert.Equal(t, "", customer.Phone2)
	})

	t.Run("customer not found", func(t *testing.T) {
		_, err := repo.GetByCustomerID(ctx, "missing")
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})
}

func TestCustomerRepository_UpsertBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db.DB)
	ctx := context.Background()

	t.Run("insert new rows", func(t *testing.T) {
		err := repo.UpsertBatch(ctx, []*model.Customer{
			{CustomerID: "u-1", FirstName: "Mia", LastName: "Stein", Country: "Germany"},
			{CustomerID: "u-2", FirstName: "Lia", LastName: "Moser", Country: "Switzerland"},
		})
		require.NoError(t, err)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("rerun refreshes existing rows instead of duplicating", func(t *testing.T) {
		err := repo.UpsertBatch(ctx, []*model.Customer{
			{CustomerID: "u-1", FirstName: "Mia", LastName: "Stein", Country: "Italy", Email: "mia@stein.example"},
		})
		require.NoError(t, err)

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		customer, err := repo.GetByCustomerID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, "Italy", customer.Country)
		assert.Equal(t, "mia@stein.example", customer.Email)
	})

	t.Run("empty batch", func(t *testing.T) {
		err := repo.UpsertBatch(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyCustomerBatch)
	})
}

func TestCustomerRepository_ContextCancellation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db.DB)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.List(ctx, model.CustomerFilter{})
	assert.Error(t, err)
}
