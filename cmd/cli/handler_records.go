package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sguter90/fieldmaestro/pkg/models"
	"github.com/sguter90/fieldmaestro/pkg/spool"
	"github.com/sirupsen/logrus"
)

// getRecordsHandler pages through imported records
// Query params:
//   - search: substring of source key or category
//   - page: 1-based page (default: 1)
//   - page_size: records per page (default: 50, max: 500)
func (rm *RouteManager) getRecordsHandler(w http.ResponseWriter, r *http.Request) {
	params := models.RecordQueryParams{Search: r.URL.Query().Get("search")}

	var err error
	if params.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.PageSize, err = queryInt(r, "page_size", models.DefaultRecordPageSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := rm.dbManager.FetchRecords(r.Context(), params)
	if err != nil {
		rm.writeStoreError(w, err, "", "fetch records")
		return
	}

	total, err := rm.dbManager.CountRecords(r.Context(), params.Search)
	if err != nil {
		rm.writeStoreError(w, err, "", "count records")
		return
	}

	writeJSON(w, http.StatusOK, models.NewRecordsResponse(records, total, params))
}

// importRecordsHandler moves the spooled records into the database
func (rm *RouteManager) importRecordsHandler(w http.ResponseWriter, r *http.Request) {
	if rm.services == nil || rm.services.Spool == nil {
		writeError(w, http.StatusServiceUnavailable, "Spool not configured")
		return
	}

	result, err := importSpool(r.Context(), rm.services.Spool, rm.dbManager, rm.logger)
	if err != nil {
		rm.writeStoreError(w, err, "", "import records")
		return
	}

	rm.logger.WithFields(logrus.Fields{
		"read":     result.Read,
		"inserted": result.Inserted,
		"skipped":  result.Skipped,
	}).Info("📥 Spool imported")

	writeJSON(w, http.StatusOK, result)
}

type recordInserter interface {
	InsertRecordsBatch(ctx context.Context, records []models.ImportedRecord) (int, error)
}

// importSpool claims the spooled records and imports them. The claim is
// committed only after the insert succeeds, otherwise the records stay on
// disk for the next import.
func importSpool(ctx context.Context, sp *spool.Spool, store recordInserter, logger logrus.FieldLogger) (models.ImportResult, error) {
	batch, err := sp.Claim()
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("failed to read spool %s: %w", sp.Path(), err)
	}

	result, err := importRecords(ctx, store, batch.Records, logger)
	if err != nil {
		logger.WithError(err).WithField("records", len(batch.Records)).Warn("Import failed, spooled records kept")
		return result, err
	}

	if err := batch.Commit(); err != nil {
		return result, err
	}

	return result, nil
}

// importRecords validates claimed records and stores the valid ones in one
// batch. Invalid records are counted as skipped.
func importRecords(ctx context.Context, store recordInserter, records []models.ImportedRecord, logger logrus.FieldLogger) (models.ImportResult, error) {
	result := models.ImportResult{Read: len(records)}

	valid := make([]models.ImportedRecord, 0, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			logger.WithError(err).WithField("source_key", records[i].SourceKey).Warn("Skipping invalid record")
			result.Skipped++
			continue
		}
		valid = append(valid, records[i])
	}

	inserted, err := store.InsertRecordsBatch(ctx, valid)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted

	return result, nil
}

func (rm *RouteManager) getSystemStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rm.dbManager.CheckStatus(r.Context()))
}
