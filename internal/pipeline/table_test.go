package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Grant Amount", want: "Grant.Amount"},
		{in: "Grant.Amount", want: "Grant.Amount"},
		{in: " Year Authorized ", want: "Year.Authorized"},
		{in: "\ufeffGrantmaker Name", want: "Grantmaker.Name"},
		{in: "Primary  Subject", want: "Primary..Subject"},
		{in: "State", want: "State"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumn(tt.in))
		})
	}
}

func TestParseTable(t *testing.T) {
	data := "Grantmaker Name,Grant Amount,Description\n" +
		"Kresge Foundation,5000,\"Health, wellness and clinic access\"\n" +
		"Short Row\n" +
		"Gates Foundation,100,   \n" +
		"Ford Foundation,200,N/A\n"

	table, err := ParseTable(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Grantmaker.Name", "Grant.Amount", "Description"}, table.Columns)
	assert.Equal(t, 4, table.Len())
	assert.True(t, table.Has("Grant.Amount"))
	assert.False(t, table.Has("Grant Amount"))

	v, ok := table.Value(0, "Description")
	assert.True(t, ok)
	assert.Equal(t, "Health, wellness and clinic access", v)

	_, ok = table.Value(1, "Grant.Amount")
	assert.False(t, ok, "short rows have no value for trailing columns")
	assert.Nil(t, table.Optional(1, "Description"))

	blank := table.Optional(2, "Description")
	require.NotNil(t, blank, "whitespace text is a description, not a missing one")
	assert.Equal(t, "   ", *blank)
	assert.Nil(t, table.Optional(3, "Description"))
}

func TestParseTableEmpty(t *testing.T) {
	_, err := ParseTable(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestTableRequire(t *testing.T) {
	table, err := ParseTable(strings.NewReader("Grantmaker Name,State\n"))
	require.NoError(t, err)

	assert.NoError(t, table.Require("Grantmaker.Name"))

	err = table.Require("Grantmaker.Name", "Total.Assets", "Total.Giving")
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Total.Assets, Total.Giving")
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "5000", want: 5000, wantOK: true},
		{in: " 12.5 ", want: 12.5, wantOK: true},
		{in: "1e6", want: 1e6, wantOK: true},
		{in: "-250", want: -250, wantOK: true},
		{in: "", wantOK: false},
		{in: "NaN", wantOK: false},
		{in: "NA", wantOK: false},
		{in: "inf", wantOK: false},
		{in: "1,000", wantOK: false},
		{in: "$500", wantOK: false},
		{in: "not reported", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParseYear(t *testing.T) {
	y, ok := ParseYear("2019")
	assert.True(t, ok)
	assert.Equal(t, 2019, y)

	y, ok = ParseYear("2019.0")
	assert.True(t, ok)
	assert.Equal(t, 2019, y)

	_, ok = ParseYear("2019.5")
	assert.False(t, ok)

	_, ok = ParseYear("FY2019")
	assert.False(t, ok)

	for _, in := range []string{"1e20", "-1e20", "0", "-2019", "99999"} {
		_, ok = ParseYear(in)
		assert.False(t, ok, "year %q is out of range", in)
	}

	y, ok = ParseYear("1900")
	assert.True(t, ok)
	assert.Equal(t, 1900, y)
}
