package zaptec

import (
	"context"
	"encoding/json"
	"fmt"

	"chargingcosts/internal/models"
)

// ListChargers fetches all chargers visible to the authenticated account.
// An absent or empty Data field means no chargers, not an error.
func (c *Client) ListChargers(ctx context.Context) ([]models.Charger, error) {
	body, err := c.get(ctx, "/api/chargers", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []models.Charger `json:"Data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("zaptec: decode chargers response: %w", err)
	}
	if payload.Data == nil {
		return []models.Charger{}, nil
	}
	return payload.Data, nil
}
