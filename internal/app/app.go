package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargingcosts/internal/config"
	"chargingcosts/internal/httpcache"
	"chargingcosts/internal/report"
	"chargingcosts/internal/spot"
	"chargingcosts/internal/zaptec"
)

const httpTimeout = 30 * time.Second

// App wires the report pipeline: transport, charger API client, price oracle
// and cost aggregator.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	rdb        *redis.Client
	chargerAPI *zaptec.Client
	aggregator *report.Aggregator
}

// RunOptions selects what one report run covers.
type RunOptions struct {
	Quarter string
	Charger string
	Out     io.Writer
}

// New builds the application graph. The Redis response cache is optional;
// when unconfigured every request goes straight to the remote APIs.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Cache.RedisAddr != "" {
		rdb, err := httpcache.NewRedisClient(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("app: connect response cache: %w", err)
		}
		a.rdb = rdb
		transport = httpcache.NewTransport(rdb, cfg.CacheTTL(), transport, logger)
		logger.Debug("http response cache enabled",
			zap.String("redis", cfg.Cache.RedisAddr),
			zap.Duration("ttl", cfg.CacheTTL()),
		)
	}
	httpClient := &http.Client{Timeout: httpTimeout, Transport: transport}

	tokens := zaptec.NewTokenSource(cfg.Zaptec.BaseURL, cfg.Zaptec.Username, cfg.Zaptec.Password, httpClient, logger)
	a.chargerAPI = zaptec.NewClient(cfg.Zaptec.BaseURL, httpClient, tokens, logger,
		zaptec.WithPageObserver(pageLogger{logger}),
	)

	oracle := spot.NewOracle(cfg.Spot.BaseURL, cfg.Spot.Area, nil, httpClient, logger)
	a.aggregator = report.NewAggregator(a.chargerAPI, oracle, logger)

	return a, nil
}

// Run resolves the requested quarter, lists chargers and renders the cost
// report to opts.Out.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	from, to, err := report.ResolveQuarter(opts.Quarter, time.Now())
	if err != nil {
		return err
	}
	a.logger.Info("report window resolved",
		zap.String("quarter", opts.Quarter),
		zap.Time("from", from),
		zap.Time("to", to),
	)

	chargers, err := a.chargerAPI.ListChargers(ctx)
	if err != nil {
		return fmt.Errorf("app: list chargers: %w", err)
	}

	rows, err := a.aggregator.ComputeReport(ctx, chargers, from, to, a.cfg.Report.PageSize, opts.Charger)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintf(opts.Out, "No chargers matched %q.\n", opts.Charger)
		return nil
	}

	report.Render(opts.Out, rows)
	return nil
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

// pageLogger surfaces pagination progress as debug logs.
type pageLogger struct {
	logger *zap.Logger
}

func (p pageLogger) PageCompleted(pageIndex, totalPages int) {
	p.logger.Debug("page completed", zap.Int("page", pageIndex), zap.Int("pages", totalPages))
}
