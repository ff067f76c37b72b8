// AngelaMos | 2026
// date_test.go

package core

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddYears(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		want  Date
	}{
		{
			name:  "ordinary date",
			start: NewDate(2024, time.January, 15),
			want:  NewDate(2025, time.January, 15),
		},
		{
			name:  "leap day clamps to end of february",
			start: NewDate(2024, time.February, 29),
			want:  NewDate(2025, time.February, 28),
		},
		{
			name:  "end of year",
			start: NewDate(2023, time.December, 31),
			want:  NewDate(2024, time.December, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.String(), tt.start.AddYears(1).String())
		})
	}
}

func TestDateAddDays(t *testing.T) {
	got := NewDate(2024, time.January, 15).AddDays(30)
	assert.Equal(t, "2024-02-14", got.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 1), d)

	d, err = ParseDate("2024-03-01T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", d.String())

	_, err = ParseDate("03/01/2024")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2024-06-15","end":null}`), &p))
	assert.Equal(t, "2024-06-15", p.Start.String())
	assert.Nil(t, p.End)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-06-15","end":null}`, string(out))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-01", d.String())

	require.NoError(t, d.Scan("2023-12-24"))
	assert.Equal(t, "2023-12-24", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	require.Error(t, d.Scan(42))
}

func TestDateValue(t *testing.T) {
	v, err := NewDate(2024, time.July, 4).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
