package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/driver"
	"github.com/pixil98/go-bunker/internal/feed"
	"github.com/pixil98/go-bunker/internal/messaging"
	"github.com/pixil98/go-bunker/internal/sim"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load all assets up front
	dict, err := cfg.Storage.BuildDictionary()
	if err != nil {
		return nil, fmt.Errorf("building dictionary: %w", err)
	}

	// Message bus for events and player commands
	nats, err := cfg.Nats.BuildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	tickLength := driver.DefaultTickLength
	if cfg.TickInterval != "" {
		tickLength, err = time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
	}

	// The simulation world
	world, err := cfg.Sim.BuildWorld(dict, tickLength.Seconds(), messaging.NewEventPublisher(nats))
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}

	// Player command intake
	control := sim.NewControl(world, nats)

	// Human-readable event feed
	var feedOpts []feed.FeedOpt
	if cfg.Feed.Width > 0 {
		feedOpts = append(feedOpts, feed.WithWidth(cfg.Feed.Width))
	}
	eventFeed, err := feed.NewFeed(nats, feedOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating feed: %w", err)
	}

	// Setup the simulation driver
	simDriver := driver.NewSimDriver(
		[]driver.Ticker{world},
		driver.WithTickLength(tickLength),
	)

	// Create a worker list
	return service.WorkerList{
		"nats":    nats,
		"driver":  simDriver,
		"control": control,
		"feed":    eventFeed,
	}, nil
}
