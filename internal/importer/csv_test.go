package importer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nimasrn/customer-gateway/test/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCSV(t *testing.T) {
	t.Run("file without header", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		_, err := OpenCSV(path)
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenCSV(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})

	t.Run("header only file yields no rows", func(t *testing.T) {
		path := fixtures.WriteCSV(t)

		reader, err := OpenCSV(path)
		require.NoError(t, err)
		defer reader.Close()

		_, err = reader.Read()
		assert.Equal(t, io.EOF, err)
	})
}

func TestReader_Read(t *testing.T) {
	t.Run("rows come back in file order with line numbers", func(t *testing.T) {
		path := fixtures.WriteCSV(t,
			fixtures.CSVRow(fixtures.TestCustomerSheryl),
			fixtures.CSVRow(fixtures.TestCustomerPreston),
		)

		reader, err := OpenCSV(path)
		require.NoError(t, err)
		defer reader.Close()

		row1, err := reader.Read()
		require.NoError(t, err)
		assert.Equal(t, 2, row1.Line)
		assert.Equal(t, "DD37Cf93aecA6Dc", row1.Fields[0])
		assert.Equal(t, "Sheryl", row1.Fields[1])

		row2, err := reader.Read()
		require.NoError(t, err)
		assert.Equal(t, 3, row2.Line)
		assert.Equal(t, "Preston", row2.Fields[1])

		_, err = reader.Read()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("field count mismatch names the line", func(t *testing.T) {
		path := fixtures.WriteCSV(t,
			fixtures.CSVRow(fixtures.TestCustomerSheryl),
			"too,few,fields",
		)

		reader, err := OpenCSV(path)
		require.NoError(t, err)
		defer reader.Close()

		_, err = reader.Read()
		require.NoError(t, err)

		_, err = reader.Read()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 3")
	})
}

func TestRowToCustomer(t *testing.T) {
	t.Run("positional mapping", func(t *testing.T) {
		row := Row{
			Fields: []string{
				"DD37Cf93aecA6Dc", "Sheryl", "Baxter", "Rasmussen Group", "East Leonard",
				"Chile", "229.077.5154", "397.884.0519x718", "zunigavanessa@smith.info", "2020-08-24",
			},
			Line: 2,
		}

		c, err := rowToCustomer(row)
		require.NoError(t, err)
		assert.Equal(t, "DD37Cf93aecA6Dc", c.CustomerID)
		assert.Equal(t, "Sheryl", c.FirstName)
		assert.Equal(t, "Baxter", c.LastName)
		assert.Equal(t, "Rasmussen Group", c.Company)
		assert.Equal(t, "East Leonard", c.City)
		assert.Equal(t, "Chile", c.Country)
		assert.Equal(t, "229.077.5154", c.Phone1)
		assert.Equal(t, "397.884.0519x718", c.Phone2)
		assert.Equal(t, "zunigavanessa@smith.info", c.Email)
		require.NotNil(t, c.SubscriptionDate)
		assert.Equal(t, "2020-08-24", c.SubscriptionDate.Format("2006-01-02"))
	})

	t.Run("empty subscription date becomes nil", func(t *testing.T) {
		row := Row{
			Fields: []string{"id-1", "A", "B", "", "", "", "", "", "", ""},
			Line:   2,
		}

		c, err := rowToCustomer(row)
		require.NoError(t, err)
		assert.Nil(t, c.SubscriptionDate)
	})

	t.Run("malformed subscription date names the line", func(t *testing.T) {
		row := Row{
			Fields: []string{"id-1", "A", "B", "", "", "", "", "", "", "24/08/2020"},
			Line:   7,
		}

		_, err := rowToCustomer(row)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 7")
	})
}

func TestPrefixFilter(t *testing.T) {
	row := func(first, last string) Row {
		return Row{Fields: []string{"id", first, last, "", "", "", "", "", "", ""}}
	}

	t.Run("empty prefixes return nil filter", func(t *testing.T) {
		assert.Nil(t, PrefixFilter("", ""))
	})

	t.Run("first name prefix", func(t *testing.T) {
		filter := PrefixFilter("Sh", "")
		assert.True(t, filter(row("Sheryl", "Baxter")))
		assert.False(t, filter(row("Preston", "Lozano")))
	})

	t.Run("both prefixes must match", func(t *testing.T) {
		filter := PrefixFilter("Sh", "Ba")
		assert.True(t, filter(row("Sheryl", "Baxter")))
		assert.False(t, filter(row("Sheryl", "Lozano")))
	})
}
