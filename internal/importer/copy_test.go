package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyArgs(t *testing.T) {
	t.Run("empty fields load as null", func(t *testing.T) {
		args := copyArgs([]string{
			"DD37Cf93aecA6Dc", "Sheryl", "Baxter", "", "East Leonard",
			"Chile", "229.077.5154", "", "zunigavanessa@smith.info", "2020-08-24",
		})
		require.Len(t, args, len(CopyColumns))
		assert.Nil(t, args[3])
		assert.Nil(t, args[7])
		assert.Equal(t, "Sheryl", args[1])
		assert.Equal(t, "2020-08-24", args[9])
	})

	t.Run("whitespace-only fields load as null", func(t *testing.T) {
		args := copyArgs([]string{"c-1", "  ", "\t"})
		assert.Equal(t, "c-1", args[0])
		assert.Nil(t, args[1])
		assert.Nil(t, args[2])
	})
}
