package zaptec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chargingcosts/internal/models"
)

// detailLevelSamples asks the API for per-sample energy details, not just
// session totals.
const detailLevelSamples = "1"

// PageObserver receives an advisory notification after each history page has
// been processed. Implementations must not influence the fetch in any way.
type PageObserver interface {
	PageCompleted(pageIndex, totalPages int)
}

type noopObserver struct{}

func (noopObserver) PageCompleted(int, int) {}

type historyPage struct {
	Pages int                    `json:"Pages"`
	Data  []models.ChargeSession `json:"Data"`
}

// FetchEnergyHistory retrieves every energy sample for one charger within
// [from, to], walking the API's pages sequentially, and counts the charging
// sessions encountered. Samples keep the order the API returned them in.
//
// Pagination rule: the page index starts at 0 and is incremented after each
// processed page; the loop stops once the incremented index reaches the Pages
// value of the most recent response. A response with Pages == 0 therefore
// yields an empty result after a single request.
func (c *Client) FetchEnergyHistory(ctx context.Context, chargerID string, from, to time.Time, pageSize int) ([]models.EnergySample, int, error) {
	var samples []models.EnergySample
	chargesCount := 0
	pageIndex := 0

	for {
		query := url.Values{
			"ChargerId":   {chargerID},
			"From":        {from.Format(time.RFC3339)},
			"To":          {to.Format(time.RFC3339)},
			"PageSize":    {strconv.Itoa(pageSize)},
			"PageIndex":   {strconv.Itoa(pageIndex)},
			"DetailLevel": {detailLevelSamples},
		}
		body, err := c.get(ctx, "/api/chargehistory", query)
		if err != nil {
			return nil, 0, err
		}

		var page historyPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, 0, fmt.Errorf("zaptec: decode charge history page %d: %w", pageIndex, err)
		}

		for _, session := range page.Data {
			chargesCount++
			samples = append(samples, session.EnergyDetails...)
		}

		pageIndex++
		c.observer.PageCompleted(pageIndex, page.Pages)
		c.logger.Debug("charge history page processed",
			zap.String("charger_id", chargerID),
			zap.Int("page", pageIndex),
			zap.Int("pages", page.Pages),
		)

		if pageIndex >= page.Pages {
			break
		}
	}

	return samples, chargesCount, nil
}
