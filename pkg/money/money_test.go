package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMajor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole amount", input: "20", want: 2000},
		{name: "two fractional digits", input: "12.50", want: 1250},
		{name: "one fractional digit", input: "12.5", want: 1250},
		{name: "trailing dot", input: "12.", want: 1200},
		{name: "leading dot", input: ".99", want: 99},
		{name: "zero", input: "0", want: 0},
		{name: "whitespace trimmed", input: " 7.25 ", want: 725},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "three fractional digits", input: "1.999", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "scientific notation rejected", input: "1e3", wantErr: true},
		{name: "sign inside fraction rejected", input: "5.-1", wantErr: true},
		{name: "plus inside fraction rejected", input: "5.+1", wantErr: true},
		{name: "letters inside fraction rejected", input: "5.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMajor(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromNumber(t *testing.T) {
	got, err := FromNumber(json.Number("12.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(1250), got)
}

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "12.50", FormatMinor(1250))
	assert.Equal(t, "20.00", FormatMinor(2000))
	assert.Equal(t, "0.05", FormatMinor(5))
	assert.Equal(t, "-3.75", FormatMinor(-375))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "12.50", "999.99"} {
		minor, err := ParseMajor(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatMinor(minor))
	}
}
