package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
)

// CSVHeader matches the column order the import readers expect.
const CSVHeader = "customer_id,first_name,last_name,company,city,country,phone_1,phone_2,email,subscription_date"

var (
	TestCustomerSheryl = model.Customer{
		CustomerID:       "DD37Cf93aecA6Dc",
		FirstName:        "Sheryl",
		LastName:         "Baxter",
		Company:          "Rasmussen Group",
		City:             "East Leonard",
		Country:          "Chile",
		Phone1:           "229.077.5154",
		Phone2:           "397.884.0519x718",
		Email:            "zunigavanessa@smith.info",
		SubscriptionDate: DatePtr(2020, 8, 24),
	}

	TestCustomerPreston = model.Customer{
		CustomerID:       "1Ef7b82A4CAAD10",
		FirstName:        "Preston",
		LastName:         "Lozano",
		Company:          "Vega-Gentry",
		City:             "East Jimmychester",
		Country:          "Germany",
		Phone1:           "5153435776",
		Phone2:           "686-620-1820x944",
		Email:            "vmata@colon.com",
		SubscriptionDate: DatePtr(2021, 4, 23),
	}

	TestCustomerRoy = model.Customer{
		CustomerID:       "6F94879bDAfE5a6",
		FirstName:        "Roy",
		LastName:         "Berry",
		Company:          "Murillo-Perry",
		City:             "Isabelborough",
		Country:          "Italy",
		Phone1:           "+1-539-402-0259",
		Phone2:           "(496)978-3969x58947",
		Email:            "beckycarr@hogan.com",
		SubscriptionDate: DatePtr(2020, 3, 25),
	}
)

func DatePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func NewTestCustomer(customerID, firstName, lastName, country string) *model.Customer {
	return &model.Customer{
		CustomerID: customerID,
		FirstName:  firstName,
		LastName:   lastName,
		Country:    country,
		Email:      strings.ToLower(firstName) + "@example.com",
	}
}

func NewTestImportJob(path string, mode model.ImportMode) *model.ImportJob {
	return &model.ImportJob{
		ID:          "test-job-1",
		Path:        path,
		Mode:        mode,
		RequestedAt: time.Now(),
	}
}

// CSVRow renders one customer as a CSV line in the import column order.
func CSVRow(c model.Customer) string {
	date := ""
	if c.SubscriptionDate != nil {
		date = c.SubscriptionDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s",
		c.CustomerID, c.FirstName, c.LastName, c.Company, c.City,
		c.Country, c.Phone1, c.Phone2, c.Email, date)
}

// WriteCSV writes a CSV file with the standard header plus the given rows
// into a temp dir, returning its path.
func WriteCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	content := CSVHeader + "\n"
	if len(rows) > 0 {
		content += strings.Join(rows, "\n") + "\n"
	}
	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("failed to write fixture csv: %v", err)
	}
	return path
}

func CustomerFilterByCountries(countries ...string) model.CustomerFilter {
	return model.CustomerFilter{
		Countries: countries,
		Limit:     50,
		Offset:    0,
	}
}

func CustomerFilterWithPagination(limit, offset int) model.CustomerFilter {
	return model.CustomerFilter{
		Limit:  limit,
		Offset: offset,
	}
}
