package forecasts

// ConditionFamily names a group of provider condition codes.
type ConditionFamily string

const (
	FamilyThunderstorm ConditionFamily = "thunderstorm"
	FamilyDrizzle      ConditionFamily = "drizzle"
	FamilyRain         ConditionFamily = "rain"
	FamilySnow         ConditionFamily = "snow"
	FamilyAtmosphere   ConditionFamily = "atmosphere"
	FamilyClear        ConditionFamily = "clear"
	FamilyClouds       ConditionFamily = "clouds"
	FamilyUnknown      ConditionFamily = "unknown"
)

// Family maps a condition code to its group. Codes outside the documented
// groups (including 4xx, which the provider does not use) are FamilyUnknown.
func Family(code int) ConditionFamily {
	switch {
	case code >= 200 && code < 300:
		return FamilyThunderstorm
	case code >= 300 && code < 400:
		return FamilyDrizzle
	case code >= 500 && code < 600:
		return FamilyRain
	case code >= 600 && code < 700:
		return FamilySnow
	case code >= 700 && code < 800:
		return FamilyAtmosphere
	case code == 800:
		return FamilyClear
	case code > 800 && code < 900:
		return FamilyClouds
	default:
		return FamilyUnknown
	}
}

// IsPrecipitation reports whether the family is a precipitation family.
func (f ConditionFamily) IsPrecipitation() bool {
	switch f {
	case FamilyThunderstorm, FamilyDrizzle, FamilyRain, FamilySnow:
		return true
	default:
		return false
	}
}
