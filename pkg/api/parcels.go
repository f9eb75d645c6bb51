package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// GetParcels retrieves all parcels
func (c *Client) GetParcels(ctx context.Context) ([]models.Parcel, error) {
	var parcels []models.Parcel
	if err := c.getJSON(ctx, "/api/v1/parcels", &parcels); err != nil {
		return nil, err
	}

	return parcels, nil
}

// GetSensorsByParcel retrieves the sensors installed on one parcel
func (c *Client) GetSensorsByParcel(ctx context.Context, parcelID uuid.UUID) ([]models.Sensor, error) {
	path := fmt.Sprintf("/api/v1/parcels/%s/sensors", parcelID)

	var sensors []models.Sensor
	if err := c.getJSON(ctx, path, &sensors); err != nil {
		return nil, err
	}

	return sensors, nil
}
