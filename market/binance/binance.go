// Package binance reads historical bars from the Binance spot REST API.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/internal/logger"
	"github.com/rustyeddy/papertrader/market"
)

// maxLimit is the largest page the klines endpoint serves.
const maxLimit = 1000

type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string // optional override, e.g. a testnet
	Logger    *zap.Logger
}

// Source fetches klines. Public market data needs no keys.
type Source struct {
	client *gobinance.Client
	log    *zap.Logger
}

func New(cfg Config) *Source {
	c := gobinance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	return &Source{client: c, log: logger.OrNop(cfg.Logger)}
}

// Fetch returns the most recent limit bars for symbol at interval ("1m", "1h", ...).
func (s *Source) Fetch(ctx context.Context, symbol, interval string, limit int) ([]market.Bar, error) {
	if limit <= 0 || limit > maxLimit {
		return nil, fmt.Errorf("binance: limit must be in 1..%d, got %d", maxLimit, limit)
	}

	ks, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s %s: %w", symbol, interval, err)
	}
	s.log.Debug("klines fetched",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("count", len(ks)))

	return toBars(ks)
}

// FetchRange pages through klines with open time in [start, end).
func (s *Source) FetchRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Bar, error) {
	step, err := market.ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	var out []market.Bar
	cursor := start
	for cursor.Before(end) {
		ks, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(cursor.UnixMilli()).
			EndTime(end.UnixMilli() - 1).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance: klines %s %s from %s: %w",
				symbol, interval, cursor.Format(time.RFC3339), err)
		}
		if len(ks) == 0 {
			break
		}

		bars, err := toBars(ks)
		if err != nil {
			return nil, err
		}
		out = append(out, bars...)
		cursor = bars[len(bars)-1].Time.Add(step)
	}

	s.log.Debug("kline range fetched",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("count", len(out)))
	return out, nil
}

func toBars(ks []*gobinance.Kline) ([]market.Bar, error) {
	bars := make([]market.Bar, 0, len(ks))
	for _, k := range ks {
		b, err := translateKline(k)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func translateKline(k *gobinance.Kline) (market.Bar, error) {
	if k == nil {
		return market.Bar{}, errors.New("binance: nil kline")
	}

	var vals [5]float64
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("binance: parsing %s %q: %w", market.BarHeader[i+1], s, err)
		}
		vals[i] = v
	}

	return market.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
