package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/parser"
	"github.com/sirupsen/logrus"
)

// DefaultParcelMarker selects the target parcel by name
const DefaultParcelMarker = "Greenhouse"

// Directory lists parcels and their sensors. It is satisfied by the API
// client and by the database manager.
type Directory interface {
	GetParcels(ctx context.Context) ([]models.Parcel, error)
	GetSensorsByParcel(ctx context.Context, parcelID uuid.UUID) ([]models.Sensor, error)
}

// Mapping maps a frame field name onto the sensor that receives it
type Mapping map[string]uuid.UUID

// Discovery is the outcome of one discovery run
type Discovery struct {
	Parcel  *models.Parcel
	Mapping Mapping
}

// Discover picks the first parcel whose name contains marker, or the first
// parcel when none matches, and maps every sensor whose type is a field of
// fields. No parcels is not an error; the mapping is empty.
func Discover(ctx context.Context, dir Directory, marker string, fields parser.FieldMap, logger logrus.FieldLogger) (*Discovery, error) {
	logger.Info("Discovering sensors")

	parcels, err := dir.GetParcels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parcels: %w", err)
	}

	result := &Discovery{Mapping: make(Mapping)}
	if len(parcels) == 0 {
		logger.Warn("No parcels found")
		return result, nil
	}

	target := parcels[0]
	if marker != "" {
		for _, p := range parcels {
			if strings.Contains(p.Name, marker) {
				target = p
				break
			}
		}
	}
	result.Parcel = &target

	logger.WithFields(logrus.Fields{
		"parcel":    target.Name,
		"parcel_id": target.ID,
	}).Info("Targeting parcel")

	sensors, err := dir.GetSensorsByParcel(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sensors for parcel %s: %w", target.ID, err)
	}

	for _, s := range sensors {
		if !fields.HasField(s.Type) {
			continue
		}
		result.Mapping[s.Type] = s.ID
		logger.WithFields(logrus.Fields{
			"field":     s.Type,
			"sensor_id": s.ID,
		}).Info("Mapped field to sensor")
	}

	if len(result.Mapping) == 0 {
		logger.Warn("No compatible sensors found in the target parcel, frames will be dropped")
	}

	return result, nil
}
