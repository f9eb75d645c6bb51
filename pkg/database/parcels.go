package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// CreateParcel stores a new parcel
func (dm *DatabaseManager) CreateParcel(ctx context.Context, input models.ParcelInput) (*models.Parcel, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	parcel := models.Parcel{
		ID:       uuid.New(),
		Name:     input.Name,
		Location: input.Location,
	}

	query := `
        INSERT INTO parcels (id, name, location, seq)
        VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM parcels))
    `
	if _, err := dm.ExecWithHealthCheck(ctx, query, parcel.ID, parcel.Name, parcel.Location); err != nil {
		return nil, fmt.Errorf("failed to create parcel: %w", err)
	}

	return &parcel, nil
}

// GetParcels returns all parcels in creation order
func (dm *DatabaseManager) GetParcels(ctx context.Context) ([]models.Parcel, error) {
	query := `SELECT id, name, location FROM parcels ORDER BY seq, id`

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parcels: %w", err)
	}
	defer rows.Close()

	parcels := []models.Parcel{}
	for rows.Next() {
		var p models.Parcel
		if err := rows.Scan(&p.ID, &p.Name, &p.Location); err != nil {
			dm.logger.WithError(err).Warn("❌ Failed to scan parcel")
			continue
		}
		parcels = append(parcels, p)
	}

	return parcels, rows.Err()
}

// GetParcel returns one parcel or ErrNotFound
func (dm *DatabaseManager) GetParcel(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	query := `SELECT id, name, location FROM parcels WHERE id = ?`

	var p models.Parcel
	err := dm.QueryRowWithHealthCheck(ctx, query, id).Scan(&p.ID, &p.Name, &p.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parcel %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query parcel: %w", err)
	}

	return &p, nil
}

// UpdateParcel replaces the writable fields of a parcel
func (dm *DatabaseManager) UpdateParcel(ctx context.Context, id uuid.UUID, input models.ParcelInput) (*models.Parcel, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	query := `UPDATE parcels SET name = ?, location = ? WHERE id = ?`
	res, err := dm.ExecWithHealthCheck(ctx, query, input.Name, input.Location, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update parcel: %w", err)
	}
	if err := expectAffected(res, "parcel", id); err != nil {
		return nil, err
	}

	return &models.Parcel{ID: id, Name: input.Name, Location: input.Location}, nil
}

// DeleteParcel removes a parcel. Its sensors, readings and alerts go with it.
func (dm *DatabaseManager) DeleteParcel(ctx context.Context, id uuid.UUID) error {
	res, err := dm.ExecWithHealthCheck(ctx, `DELETE FROM parcels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}
	return expectAffected(res, "parcel", id)
}

// expectAffected turns a zero-row write into ErrNotFound
func expectAffected(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
