package driver

import (
	"context"
	"time"

	"github.com/pixil98/go-log"
)

const (
	DefaultTickLength = 50 * time.Millisecond
)

// Ticker is one simulation system advanced by the driver every tick.
type Ticker interface {
	Tick(context.Context) error
}

// SimDriver runs the fixed-step simulation clock. Every registered ticker is
// advanced once per tick, in registration order, on a single goroutine; no
// system ever observes another mid-tick.
type SimDriver struct {
	tickLength time.Duration
	tickers    []Ticker
}

func NewSimDriver(tickers []Ticker, opts ...SimDriverOpt) *SimDriver {
	d := &SimDriver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *SimDriver) Start(ctx context.Context) error {
	log.GetLogger(ctx).Infof("simulation running at %s per tick", d.tickLength)

	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *SimDriver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
