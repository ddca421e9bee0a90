package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_AppendText_ExactWidths(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   string
	}{
		{
			name: "max count, mixed analog padding",
			sample: Sample{
				TimeMicros:     1234567890,
				FlywheelCount:  16777215,
				FlywheelDir:    true,
				StarterPower:   false,
				StarterCurrent: 1023,
				FuelHtrCurrent: 0,
				StarterStrain:  512,
			},
			want: "1234567890,16777215,1,0,1023,0000,0512\n",
		},
		{
			name:   "all zero",
			sample: Sample{},
			want:   "0000000000,00000000,0,0,0000,0000,0000\n",
		},
		{
			name: "small values padded",
			sample: Sample{
				TimeMicros:     42,
				FlywheelCount:  7,
				FlywheelDir:    false,
				StarterPower:   true,
				StarterCurrent: 3,
				FuelHtrCurrent: 99,
				StarterStrain:  1000,
			},
			want: "0000000042,00000007,0,1,0003,0099,1000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sample.AppendText(nil)
			assert.Equal(t, tt.want, string(got))
			assert.Len(t, got, MaxLineBytes, "every encoded line is fixed width")
		})
	}
}

func TestSample_AppendText_MasksCountTo24Bits(t *testing.T) {
	s := Sample{FlywheelCount: 0x1FFFFFF} // bit 24 set
	got := string(s.AppendText(nil))
	assert.Equal(t, "0000000000,16777215,0,0,0000,0000,0000\n", got)
}

func TestParseLine_RoundTrip(t *testing.T) {
	orig := Sample{
		TimeMicros:     4294967295,
		FlywheelCount:  123456,
		FlywheelDir:    true,
		StarterPower:   true,
		StarterCurrent: 511,
		FuelHtrCurrent: 1023,
		StarterStrain:  1,
	}

	parsed, err := ParseLine(string(orig.AppendText(nil)))
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParseLine_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "1,2,3"},
		{name: "bad timestamp", line: "x,00000000,0,0,0000,0000,0000"},
		{name: "count over 24 bits", line: "0000000000,16777216,0,0,0000,0000,0000"},
		{name: "direction not a digit", line: "0000000000,00000000,2,0,0000,0000,0000"},
		{name: "analog over 10 bits", line: "0000000000,00000000,0,0,1024,0000,0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestSample_String_NoTrailingNewline(t *testing.T) {
	s := Sample{TimeMicros: 1}
	assert.Equal(t, "0000000001,00000000,0,0,0000,0000,0000", s.String())
}
