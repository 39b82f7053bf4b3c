package service

import (
	"encoding/json"
	"math"
	"testing"

	"gsj_gateway/internal/models"
)

func Test_normalizeReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   map[string]any
		want models.Reading
	}{
		{
			name: "nil map gives zero reading",
			in:   nil,
			want: models.Reading{},
		},
		{
			name: "json numbers and strings",
			in: map[string]any{
				models.KeyOutdoorTemp:      json.Number("-7.25"),
				models.KeyHeatingTemp:      "38.0",
				models.KeyHotWaterTemp:     float64(51),
				models.KeySupplyTemp:       " 40,5 ",
				models.KeyReturnTemp:       json.Number("35"),
				models.KeyHeatingSetpoint:  "40",
				models.KeyHotWaterSetpoint: json.Number("52.5"),
				models.KeyHeatingStatus:    json.Number("1"),
				models.KeyHotWaterStatus:   "0",
				models.KeyCompressorStatus: true,
			},
			want: models.Reading{
				OutdoorTempC:     -7.25,
				HeatingTempC:     38,
				HotWaterTempC:    51,
				SupplyTempC:      40.5,
				ReturnTempC:      35,
				HeatingSetpoint:  40,
				HotWaterSetpoint: 52.5,
				HeatingStatus:    1,
				HotWaterStatus:   0,
				CompressorStatus: 1,
			},
		},
		{
			name: "garbage becomes zero",
			in: map[string]any{
				models.KeyHeatingTemp:   "---",
				models.KeyHeatingStatus: map[string]any{"nested": 1},
				models.KeyReturnTemp:    nil,
				models.KeySupplyTemp:    "NaN",
			},
			want: models.Reading{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeReading(tc.in)
			if got != tc.want {
				t.Fatalf("normalizeReading = %+v; want %+v", got, tc.want)
			}
		})
	}
}

func Test_toFloat_NeverReturnsNaN(t *testing.T) {
	t.Parallel()
	for _, v := range []any{"NaN", "Inf", "-Inf", math.NaN(), math.Inf(1)} {
		if got := toFloat(v); got != 0 {
			t.Fatalf("toFloat(%v) = %v; want 0", v, got)
		}
	}
}

func Test_toStatus_OutOfRangeIsZero(t *testing.T) {
	t.Parallel()
	cases := map[any]int{
		"1e300":          0,
		"-1e300":         0,
		1e19:             0,
		"1":              1,
		"2,0":            2,
		json.Number("1"): 1,
		0.9:              0,
		true:             1,
	}
	for in, want := range cases {
		if got := toStatus(in); got != want {
			t.Fatalf("toStatus(%v) = %d; want %d", in, got, want)
		}
	}
}
