package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Values(t *testing.T) {
	f := Filter{Filter: map[string]string{"status": "for proposal, successful,,", "empty": ""}}

	assert.Equal(t, []string{"for proposal", "successful"}, f.Values("status"))
	assert.Nil(t, f.Values("empty"))
	assert.Nil(t, f.Values("missing"))
}

func TestFilter_Date(t *testing.T) {
	f := Filter{Filter: map[string]string{"date_from": "2024-03-01", "bad": "01/03/2024"}}

	d, err := f.Date("date_from")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-03-01", d.Format(DateLayout))

	d, err = f.Date("missing")
	assert.NoError(t, err)
	assert.Nil(t, d)

	_, err = f.Date("bad")
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, uint64(3), NewPagination(21, 1, 10).TotalPages)
	assert.Equal(t, uint64(2), NewPagination(20, 1, 10).TotalPages)
	assert.Equal(t, uint64(0), NewPagination(0, 1, 10).TotalPages)
	assert.Equal(t, uint64(0), NewPagination(5, 1, 0).TotalPages)
}
