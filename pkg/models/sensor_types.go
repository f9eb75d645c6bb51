package models

// SensorType constants for the supported sensor kinds
const (
	SensorTypeTemperature  = "temperature"
	SensorTypeHumidity     = "humidity"
	SensorTypeSoilMoisture = "soil_moisture"
	SensorTypeLight        = "light"
	SensorTypeCO2          = "co2"
	SensorTypeCOV          = "cov"
	SensorTypeNOx          = "nox"
	SensorTypeOther        = "other"
)

// SensorTypeInfo holds metadata about a sensor type
type SensorTypeInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Unit  string `json:"unit"`
}

// SensorTypeRegistry maps sensor type names to their information
var SensorTypeRegistry = map[string]SensorTypeInfo{
	SensorTypeTemperature: {
		Name:  SensorTypeTemperature,
		Label: "Temperature",
		Unit:  "°C",
	},
	SensorTypeHumidity: {
		Name:  SensorTypeHumidity,
		Label: "Humidity",
		Unit:  "%",
	},
	SensorTypeSoilMoisture: {
		Name:  SensorTypeSoilMoisture,
		Label: "Soil moisture",
		Unit:  "%",
	},
	SensorTypeLight: {
		Name:  SensorTypeLight,
		Label: "Light",
		Unit:  "Lux",
	},
	SensorTypeCO2: {
		Name:  SensorTypeCO2,
		Label: "CO2",
		Unit:  "ppm",
	},
	SensorTypeCOV: {
		Name:  SensorTypeCOV,
		Label: "Volatile organic compounds",
		Unit:  "index",
	},
	SensorTypeNOx: {
		Name:  SensorTypeNOx,
		Label: "Nitrogen oxides",
		Unit:  "index",
	},
	SensorTypeOther: {
		Name:  SensorTypeOther,
		Label: "Other",
		Unit:  "",
	},
}

// IsKnownSensorType reports whether t is part of the sensor type vocabulary
func IsKnownSensorType(t string) bool {
	_, ok := SensorTypeRegistry[t]
	return ok
}

// DefaultUnit returns the conventional unit for a sensor type, or "" if unknown
func DefaultUnit(t string) string {
	return SensorTypeRegistry[t].Unit
}
