package models

// Reading is the normalized heat pump telemetry snapshot.
type Reading struct {
	OutdoorTempC     float64 `json:"temp_zewnetrzna"`  // °C
	HeatingTempC     float64 `json:"temp_co"`          // °C
	HotWaterTempC    float64 `json:"temp_cwu"`         // °C
	SupplyTempC      float64 `json:"temp_zasilania"`   // °C
	ReturnTempC      float64 `json:"temp_powrotu"`     // °C
	HeatingSetpoint  float64 `json:"co_zadana"`        // °C
	HotWaterSetpoint float64 `json:"cwu_zadana"`       // °C
	HeatingStatus    int     `json:"co_status"`        // 0 | 1
	HotWaterStatus   int     `json:"cwu_status"`       // 0 | 1
	CompressorStatus int     `json:"sprezarka_status"` // 0 | 1
}

// Portal parameter keys.
const (
	KeyOutdoorTemp      = "TEMP_ZEWNETRZNA"
	KeyHeatingTemp      = "TEMP_CO"
	KeyHotWaterTemp     = "TEMP_CWU"
	KeySupplyTemp       = "TEMP_ZASILANIA"
	KeyReturnTemp       = "TEMP_POWROTU"
	KeyHeatingSetpoint  = "CO_ZADANA"
	KeyHotWaterSetpoint = "CWU_ZADANA"
	KeyHeatingStatus    = "CO_STATUS"
	KeyHotWaterStatus   = "CWU_STATUS"
	KeyCompressorStatus = "SPREZARKA_STATUS"
)

// Command is a single key/value write sent to the portal.
type Command struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
