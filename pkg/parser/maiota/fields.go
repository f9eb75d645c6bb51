package maiota

import (
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/parser"
)

// DefaultFields returns the field table of the MAIoTA greenhouse node
func DefaultFields() parser.FieldMap {
	return parser.FieldMap{
		"D1": {Field: models.SensorTypeTemperature, Divisor: 100, Unit: "°C"},
		"D2": {Field: models.SensorTypeHumidity, Divisor: 100, Unit: "%"},
		"D3": {Field: models.SensorTypeSoilMoisture, Divisor: 100, Unit: "%"},
		"D4": {Field: models.SensorTypeLight, Divisor: 10, Unit: "Lux"},
		"D5": {Field: models.SensorTypeCO2, Divisor: 1, Unit: "ppm"},
		"D6": {Field: models.SensorTypeCOV, Divisor: 1, Unit: "index"},
		"D7": {Field: models.SensorTypeNOx, Divisor: 1, Unit: "index"},
	}
}
