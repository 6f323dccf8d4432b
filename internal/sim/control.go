package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-log"
	"github.com/sirupsen/logrus"
)

// SubjectCommands is the subject player commands arrive on.
const SubjectCommands = "sim.cmd"

// Subscriber provides the ability to subscribe to message subjects
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// Command is the wire form of one player input.
type Command struct {
	// Op is move, fire, open or weapon
	Op string `json:"op"`

	// Dir for move ops, 0-7
	Dir game.Dir8 `json:"dir,omitempty"`

	// Weapon id for weapon ops
	Weapon string `json:"weapon,omitempty"`
}

// Control feeds player commands from the message bus into the world's input
// buffer. It is a worker; the subscription lives for the worker's lifetime.
type Control struct {
	world *World
	sub   Subscriber
}

func NewControl(world *World, sub Subscriber) *Control {
	return &Control{world: world, sub: sub}
}

// Start subscribes to the command subject and blocks until the context ends.
// The bus may not be accepting connections yet when workers come up, so the
// subscription retries briefly before giving up.
func (c *Control) Start(ctx context.Context) error {
	logger := log.GetLogger(ctx)

	var unsub func()
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		unsub, err = c.sub.Subscribe(SubjectCommands, func(data []byte) {
			c.handle(data, logger)
		})
		if err == nil {
			break
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(250 * time.Millisecond):
		}
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", SubjectCommands, err)
	}
	defer unsub()

	logger.Infof("accepting player commands on %s", SubjectCommands)

	<-ctx.Done()
	return nil
}

func (c *Control) handle(data []byte, logger logrus.FieldLogger) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		logger.Errorf("discarding malformed command: %v", err)
		return
	}

	switch cmd.Op {
	case "move":
		c.world.QueueMove(cmd.Dir & 7)
	case "fire":
		c.world.QueueFire()
	case "open":
		c.world.QueueOpenDoor()
	case "weapon":
		c.world.QueueSelectWeapon(cmd.Weapon)
	default:
		logger.Errorf("discarding unknown command op %q", cmd.Op)
	}
}
