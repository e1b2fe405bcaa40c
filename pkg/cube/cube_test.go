package cube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDates() []time.Time {
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return []time.Time{base.AddDate(0, 3, 0), base.AddDate(0, 6, 0), base.AddDate(1, 0, 0)}
}

func TestNew_Dimensions(t *testing.T) {
	asOf := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	c, err := New(asOf, []string{"T1", "T2"}, testDates(), 4, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, c.NumIDs())
	assert.Equal(t, 3, c.NumDates())
	assert.Equal(t, 4, c.Samples())
	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, asOf, c.AsOf())

	idx, ok := c.IndexOf("T2")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = c.IndexOf("T3")
	assert.False(t, ok)
}

func TestSetGet_NoAliasing(t *testing.T) {
	c, err := New(time.Now(), []string{"A", "B"}, testDates(), 3, 2)
	require.NoError(t, err)

	// 每个格子写入唯一值，再全部读回
	v := 0.0
	for id := 0; id < 2; id++ {
		for d := 0; d < 3; d++ {
			for s := 0; s < 3; s++ {
				for col := 0; col < 2; col++ {
					v++
					c.Set(v, id, d, s, col)
				}
			}
		}
	}
	v = 0.0
	for id := 0; id < 2; id++ {
		for d := 0; d < 3; d++ {
			for s := 0; s < 3; s++ {
				for col := 0; col < 2; col++ {
					v++
					require.Equal(t, v, c.Get(id, d, s, col))
				}
			}
		}
	}

	c.SetT0(42, 1, 1)
	assert.Equal(t, 42.0, c.GetT0(1, 1))
	assert.Equal(t, 0.0, c.GetT0(0, 1))

	c.Add(0.5, 0, 0, 0, 0)
	assert.Equal(t, 1.5, c.Get(0, 0, 0, 0))
}

func TestNew_Errors(t *testing.T) {
	dates := testDates()
	tests := []struct {
		name    string
		ids     []string
		dates   []time.Time
		samples int
		depth   int
		wantErr error
	}{
		{"duplicate id", []string{"A", "A"}, dates, 1, 1, ErrDuplicateID},
		{"empty id", []string{"A", ""}, dates, 1, 1, ErrEmptyID},
		{"unsorted", []string{"A"}, []time.Time{dates[1], dates[0]}, 1, 1, ErrUnsortedDates},
		{"repeated date", []string{"A"}, []time.Time{dates[0], dates[0]}, 1, 1, ErrUnsortedDates},
		{"zero depth", []string{"A"}, dates, 1, 0, ErrDimension},
		{"zero samples", []string{"A"}, dates, 0, 1, ErrDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(time.Now(), tt.ids, tt.dates, tt.samples, tt.depth)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGet_OutOfRangePanics(t *testing.T) {
	c, err := New(time.Now(), []string{"A"}, testDates(), 1, 2)
	require.NoError(t, err)

	assert.Panics(t, func() { c.Get(1, 0, 0, 0) })
	assert.Panics(t, func() { c.Get(0, 3, 0, 0) })
	assert.Panics(t, func() { c.Get(0, 0, 1, 0) })
	assert.Panics(t, func() { c.Get(0, 0, 0, 2) })
	assert.Panics(t, func() { c.GetT0(0, -1) })
}
