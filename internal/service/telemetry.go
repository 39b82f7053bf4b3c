package service

import (
	"math"
	"strings"

	"gsj_gateway/internal/models"

	"github.com/spf13/cast"
)

// normalizeReading maps raw portal parameters onto Reading. Missing or
// unparsable values become zero.
func normalizeReading(params map[string]any) models.Reading {
	return models.Reading{
		OutdoorTempC:     toFloat(params[models.KeyOutdoorTemp]),
		HeatingTempC:     toFloat(params[models.KeyHeatingTemp]),
		HotWaterTempC:    toFloat(params[models.KeyHotWaterTemp]),
		SupplyTempC:      toFloat(params[models.KeySupplyTemp]),
		ReturnTempC:      toFloat(params[models.KeyReturnTemp]),
		HeatingSetpoint:  toFloat(params[models.KeyHeatingSetpoint]),
		HotWaterSetpoint: toFloat(params[models.KeyHotWaterSetpoint]),
		HeatingStatus:    toStatus(params[models.KeyHeatingStatus]),
		HotWaterStatus:   toStatus(params[models.KeyHotWaterStatus]),
		CompressorStatus: toStatus(params[models.KeyCompressorStatus]),
	}
}

func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toStatus truncates to an int. Values outside the int32 range are junk and
// read as 0.
func toStatus(v any) int {
	f := math.Trunc(toFloat(v))
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
