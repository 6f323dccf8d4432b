package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-bunker/internal/events"
)

// Event subjects. Combat events fan out under SubjectEvents suffixed by kind,
// so consumers can subscribe to "sim.events.>" or to a single kind. Sound
// cues are duplicated on SubjectSfx for audio frontends.
const (
	SubjectEvents = "sim.events"
	SubjectSfx    = "sim.sfx"
)

// Envelope is the wire form of one combat event.
type Envelope struct {
	Tick  uint64             `json:"tick"`
	Event events.CombatEvent `json:"event"`
}

// EventPublisher pushes each tick's combat events onto the NATS fanout.
type EventPublisher struct {
	server *NatsServer
}

func NewEventPublisher(server *NatsServer) *EventPublisher {
	return &EventPublisher{server: server}
}

// PublishCombat sends every event of the tick. The first publish error is
// returned after the remaining events have been attempted; one slow consumer
// must not drop the rest of the tick.
func (p *EventPublisher) PublishCombat(tick uint64, evs []events.CombatEvent) error {
	var firstErr error
	for _, ev := range evs {
		data, err := json.Marshal(Envelope{Tick: tick, Event: ev})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("marshalling event: %w", err)
			}
			continue
		}

		subject := fmt.Sprintf("%s.%s", SubjectEvents, ev.Kind)
		if err := p.server.Publish(subject, data); err != nil && firstErr == nil {
			firstErr = err
		}

		if ev.Kind == events.PlaySound {
			if err := p.server.Publish(SubjectSfx, data); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
