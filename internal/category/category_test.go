package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("accepts every known category regardless of case", func(t *testing.T) {
		for _, c := range All() {
			got, err := Parse("  " + string(c) + " ")
			require.NoError(t, err)
			assert.Equal(t, c, got)
		}

		got, err := Parse("URGENT")
		require.NoError(t, err)
		assert.Equal(t, Urgent, got)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := Parse("groceries")
		assert.ErrorIs(t, err, ErrInvalidCategory)

		_, err = Parse("")
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})
}

func TestAllIsACopy(t *testing.T) {
	a := All()
	a[0] = "changed"
	assert.Equal(t, Personal, All()[0])
	assert.Len(t, All(), 5)
}

func TestColor(t *testing.T) {
	assert.Equal(t, "green", Personal.Color())
	assert.Equal(t, "red", Urgent.Color())
	assert.Equal(t, "gray", Category("other").Color())
}
