package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sguter90/fieldmaestro/pkg/models"
)

// IngestResponse is the body of a successful reading post
type IngestResponse struct {
	ID      uuid.UUID `json:"id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// PostReading submits one value for a sensor. The timestamp is left to the
// server. Any status other than 200 is an error.
func (c *Client) PostReading(ctx context.Context, sensorID uuid.UUID, value float64, raw string) (*IngestResponse, error) {
	body := models.IngestRequest{Value: &value}
	if raw != "" {
		body.Raw = &raw
	}

	path := fmt.Sprintf("/api/v1/sensors/%s/data", sensorID)
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var result IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
