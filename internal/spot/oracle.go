package spot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chargingcosts/internal/models"
)

// ErrPriceNotFound reports that a day's price set carries no entry for the
// requested hour. Callers must not substitute a default price.
var ErrPriceNotFound = errors.New("spot: price not found")

// HTTPDoer defines the http.Client interface subset used by the oracle.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Oracle resolves hourly spot prices from the espot API, caching one full day
// of prices per calendar date for the process lifetime. Historical prices are
// immutable once published, so the cache is never invalidated.
type Oracle struct {
	baseURL string
	area    string
	loc     *time.Location
	doer    HTTPDoer
	logger  *zap.Logger

	mu   sync.Mutex
	days map[string][]models.PriceEntry
}

// NewOracle builds an oracle for one price area. Timestamps are interpreted in
// loc; pass nil for the local timezone.
func NewOracle(baseURL, area string, loc *time.Location, doer HTTPDoer, logger *zap.Logger) *Oracle {
	if loc == nil {
		loc = time.Local
	}
	return &Oracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		area:    area,
		loc:     loc,
		doer:    doer,
		logger:  logger,
		days:    make(map[string][]models.PriceEntry),
	}
}

// GetPrice returns the spot price in SEK per kWh for the hour containing t.
// The remote unit is hundredths of SEK per kWh; the conversion happens here.
func (o *Oracle) GetPrice(ctx context.Context, t time.Time) (float64, error) {
	local := t.In(o.loc)
	day := local.Format("2006-01-02")

	entries, err := o.dayPrices(ctx, day)
	if err != nil {
		return 0, err
	}

	hour := local.Hour()
	for _, entry := range entries {
		if entry.Hour == hour {
			return entry.PriceSEK / 100, nil
		}
	}
	return 0, fmt.Errorf("%w: hour %d on %s (%s)", ErrPriceNotFound, hour, day, o.area)
}

// dayPrices returns the cached price set for day, fetching it on first use.
// The mutex is held across the fetch so concurrent callers still trigger at
// most one remote call per date.
func (o *Oracle) dayPrices(ctx context.Context, day string) ([]models.PriceEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if entries, ok := o.days[day]; ok {
		return entries, nil
	}

	entries, err := o.fetchDay(ctx, day)
	if err != nil {
		return nil, err
	}
	o.days[day] = entries
	o.logger.Debug("spot prices fetched",
		zap.String("date", day),
		zap.String("area", o.area),
		zap.Int("hours", len(entries)),
	)
	return entries, nil
}

func (o *Oracle) fetchDay(ctx context.Context, day string) ([]models.PriceEntry, error) {
	query := url.Values{
		"format": {"json"},
		"date":   {day},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/espot?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spot: price request for %s: %w", day, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("spot: unexpected status %d for %s", resp.StatusCode, day)
	}

	var payload map[string][]models.PriceEntry
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("spot: decode price response for %s: %w", day, err)
	}

	entries, ok := payload[o.area]
	if !ok {
		return nil, fmt.Errorf("spot: price area %q missing in response for %s", o.area, day)
	}
	return entries, nil
}
