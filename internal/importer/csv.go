package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nimasrn/customer-gateway/internal/model"
)

// CopyColumns is the positional target column list for CSV imports. CSV
// field 1 maps to customer_id, field 2 to first_name, and so on.
var CopyColumns = []string{
	"customer_id", "first_name", "last_name", "company", "city",
	"country", "phone_1", "phone_2", "email", "subscription_date",
}

const subscriptionDateLayout = "2006-01-02"

var (
	ErrMissingHeader = errors.New("csv file has no header line")
)

// Row is one decoded CSV data line. Line is 1-based and counts the header.
type Row struct {
	Fields []string
	Line   int
}

// Reader streams data rows from a customer CSV file. The header line is
// read and discarded on open, not validated against the column list.
type Reader struct {
	file *os.File
	csv  *csv.Reader
	line int
}

func OpenCSV(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // field count is checked per row with row context

	// header: read and discard
	if _, err := cr.Read(); err != nil {
		_ = f.Close()
		if err == io.EOF {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	return &Reader{file: f, csv: cr, line: 1}, nil
}

// Read returns the next data row. io.EOF signals a clean end of file.
func (r *Reader) Read() (Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return Row{}, io.EOF
		}
		return Row{}, fmt.Errorf("reading csv file: %w", err)
	}
	r.line++

	if len(record) != len(CopyColumns) {
		return Row{}, fmt.Errorf(
			"line %d: field count %d does not match target column count %d",
			r.line, len(record), len(CopyColumns),
		)
	}

	return Row{Fields: record, Line: r.line}, nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// rowToCustomer maps fields positionally onto a customer. An empty
// subscription date becomes NULL.
func rowToCustomer(row Row) (*model.Customer, error) {
	c := &model.Customer{
		CustomerID: row.Fields[0],
		FirstName:  row.Fields[1],
		LastName:   row.Fields[2],
		Company:    row.Fields[3],
		City:       row.Fields[4],
		Country:    row.Fields[5],
		Phone1:     row.Fields[6],
		Phone2:     row.Fields[7],
		Email:      row.Fields[8],
	}

	if raw := strings.TrimSpace(row.Fields[9]); raw != "" {
		t, err := time.Parse(subscriptionDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid subscription_date %q: %w", row.Line, raw, err)
		}
		c.SubscriptionDate = &t
	}

	return c, nil
}

// RowFilter decides whether a data row is loaded. A nil filter loads all rows.
type RowFilter func(row Row) bool

// PrefixFilter keeps rows whose first and last names start with the given
// prefixes. Empty prefixes match everything.
func PrefixFilter(firstNamePrefix, lastNamePrefix string) RowFilter {
	if firstNamePrefix == "" && lastNamePrefix == "" {
		return nil
	}
	return func(row Row) bool {
		return strings.HasPrefix(row.Fields[1], firstNamePrefix) &&
			strings.HasPrefix(row.Fields[2], lastNamePrefix)
	}
}
