package events

import (
	"encoding/json"

	"github.com/pixil98/go-bunker/internal/game"
	"github.com/pixil98/go-bunker/internal/registry"
)

// PerceptionKind classifies how an enemy detected the player.
type PerceptionKind uint8

const (
	SawPlayer PerceptionKind = iota
	HeardSomething
)

func (k PerceptionKind) String() string {
	if k == SawPlayer {
		return "saw_player"
	}
	return "heard_something"
}

// PerceptionEvent records one detection. Events are immutable values; the
// queue clears them at the tick boundary.
type PerceptionEvent struct {
	Enemy  registry.Handle
	Kind   PerceptionKind
	Source game.TileCoord
	// Confidence is 1 for sight; for sound it is the remaining fraction of
	// the audible radius at the listener.
	Confidence float64
}

// CombatKind classifies events consumed by non-core systems (score, HUD,
// audio cues).
type CombatKind uint8

const (
	Hit CombatKind = iota
	EntityDied
	AlertSounded
	ItemDropped
	ItemPickedUp
	PlaySound
	ScoreAwarded
)

func (k CombatKind) String() string {
	switch k {
	case Hit:
		return "hit"
	case EntityDied:
		return "entity_died"
	case AlertSounded:
		return "alert_sounded"
	case ItemDropped:
		return "item_dropped"
	case ItemPickedUp:
		return "item_picked_up"
	case PlaySound:
		return "play_sound"
	case ScoreAwarded:
		return "score_awarded"
	}
	return "unknown"
}

// MarshalJSON writes the kind as its name so wire consumers never depend on
// the enum ordering.
func (k CombatKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *CombatKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for c := Hit; c <= ScoreAwarded; c++ {
		if c.String() == s {
			*k = c
			return nil
		}
	}
	*k = Hit
	return nil
}

// CombatEvent is one immutable record on the per-tick queue. Only the fields
// relevant to the kind are set.
type CombatEvent struct {
	Kind     CombatKind      `json:"kind"`
	Subject  registry.Handle `json:"subject,omitempty"`
	Attacker registry.Handle `json:"attacker,omitempty"`
	Pos      game.Vec2       `json:"pos"`
	Damage   int             `json:"damage,omitempty"`
	Sound    string          `json:"sound,omitempty"`
	Item     string          `json:"item,omitempty"`
	Weapon   string          `json:"weapon,omitempty"`
	Amount   int             `json:"amount,omitempty"`
	Episode  string          `json:"episode,omitempty"`
	Actor    string          `json:"actor,omitempty"`
}

// Queue buffers the events of a single tick. Ordering within a tick is
// insertion order; nothing is retained across ticks.
type Queue struct {
	perception []PerceptionEvent
	combat     []CombatEvent
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) EmitPerception(e PerceptionEvent) {
	q.perception = append(q.perception, e)
}

func (q *Queue) EmitCombat(e CombatEvent) {
	q.combat = append(q.combat, e)
}

// Perception returns this tick's perception events in emission order. The
// slice is owned by the queue; consumers must not retain it past the tick.
func (q *Queue) Perception() []PerceptionEvent {
	return q.perception
}

// DrainCombat hands out this tick's combat events and empties the buffer.
func (q *Queue) DrainCombat() []CombatEvent {
	out := q.combat
	q.combat = nil
	return out
}

// Reset clears both buffers at the tick boundary.
func (q *Queue) Reset() {
	q.perception = q.perception[:0]
	q.combat = nil
}
