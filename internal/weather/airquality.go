package weather

import "encoding/json"

// aqiToAQHI maps the upstream 1–5 pollutant index onto the Canadian AQHI scale.
var aqiToAQHI = map[int]int{1: 2, 2: 3, 3: 5, 4: 7, 5: 10}

// ToAQHI converts a pollutant index to AQHI. Values outside 1..5 pass through.
func ToAQHI(aqi int) int {
	if v, ok := aqiToAQHI[aqi]; ok {
		return v
	}
	return aqi
}

// CategoryOf returns the health-risk band of an AQHI value.
func CategoryOf(aqhi int) AQHICategory {
	switch {
	case aqhi >= 1 && aqhi <= 3:
		return AQHILow
	case aqhi >= 4 && aqhi <= 6:
		return AQHIModerate
	case aqhi >= 7 && aqhi <= 10:
		return AQHIHigh
	case aqhi > 10:
		return AQHIVeryHigh
	default:
		return AQHIUnknown
	}
}

type airPollutionPayload struct {
	List []struct {
		Main struct {
			AQI *int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// NormalizeAirQuality reads the first pollutant index of the payload and
// converts it. It returns nil when the payload carries no index.
func NormalizeAirQuality(raw json.RawMessage) *AirQuality {
	var payload airPollutionPayload
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return nil
	}
	if len(payload.List) == 0 || payload.List[0].Main.AQI == nil {
		return nil
	}

	aqhi := ToAQHI(*payload.List[0].Main.AQI)
	return &AirQuality{
		AQHI:     aqhi,
		Category: CategoryOf(aqhi),
	}
}
