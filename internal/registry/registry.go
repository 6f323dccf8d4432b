package registry

import (
	"errors"

	"github.com/pixil98/go-bunker/internal/game"
)

// ErrStaleHandle marks an access through a handle whose slot has been
// recycled. It is always recoverable; callers drop the intent or query.
var ErrStaleHandle = errors.New("stale entity handle")

// Handle identifies an actor as an (index, generation) pair. It stays valid
// until the slot is compacted, after which the generation no longer matches
// and every dereference reports staleness instead of touching recycled state.
type Handle struct {
	Index uint32 `json:"index"`
	Gen   uint32 `json:"gen"`
}

// Zero is the null handle; it never dereferences.
var Zero = Handle{}

type slot struct {
	actor Actor
	gen   uint32
	live  bool
}

// Registry owns the canonical set of live actors. Removal is two-phase:
// MarkForRemoval during the tick, Compact once after all systems have run.
// No slot is freed mid-tick, so a handle captured at tick start either
// dereferences or is detectably stale for the whole tick.
type Registry struct {
	slots  []slot
	free   []uint32
	marked []Handle
}

func NewRegistry(capacity int) *Registry {
	r := &Registry{
		slots: make([]slot, 0, capacity),
	}
	return r
}

// Allocate creates a live actor of the given class and returns it with its
// handle. Slots are recycled from the free list; each reuse bumps the
// generation so old handles die with the old occupant.
func (r *Registry) Allocate(class Class) (*Actor, Handle) {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, slot{gen: 1})
		idx = uint32(len(r.slots) - 1)
	}

	s := &r.slots[idx]
	h := Handle{Index: idx, Gen: s.gen}
	s.live = true
	s.actor = Actor{
		Handle: h,
		Class:  class,
	}

	return &s.actor, h
}

// Deref returns the actor behind a handle, or nil and false when the handle
// is stale or was never valid. It never panics and never exposes a recycled
// slot.
func (r *Registry) Deref(h Handle) (*Actor, bool) {
	if int(h.Index) >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return nil, false
	}
	return &s.actor, true
}

// Valid reports whether the handle still points at a live actor.
func (r *Registry) Valid(h Handle) bool {
	_, ok := r.Deref(h)
	return ok
}

// MarkForRemoval schedules the actor for destruction at the next Compact.
// Stale handles are ignored; marking twice is harmless.
func (r *Registry) MarkForRemoval(h Handle) {
	if !r.Valid(h) {
		return
	}
	for _, m := range r.marked {
		if m == h {
			return
		}
	}
	r.marked = append(r.marked, h)
}

// Compact frees every marked slot and bumps its generation, invalidating all
// outstanding handles to it. Called exactly once per tick, after every phase
// has finished reading and writing; this deferral is what keeps handles safe
// when several systems kill the same entity in one tick.
func (r *Registry) Compact() int {
	freed := 0
	for _, h := range r.marked {
		s := &r.slots[h.Index]
		if !s.live || s.gen != h.Gen {
			continue
		}
		s.live = false
		s.gen++
		s.actor = Actor{}
		r.free = append(r.free, h.Index)
		freed++
	}
	r.marked = r.marked[:0]
	return freed
}

// Live calls fn for each live actor in slot order. Since removal is deferred
// to Compact, the set is stable for the duration of a tick even if actors
// are marked while iterating.
func (r *Registry) Live(fn func(*Actor)) {
	for i := range r.slots {
		if r.slots[i].live {
			fn(&r.slots[i].actor)
		}
	}
}

// Count returns the number of live actors.
func (r *Registry) Count() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].live {
			n++
		}
	}
	return n
}

// ActorsAt returns the live actors standing on a tile.
func (r *Registry) ActorsAt(t game.TileCoord) []*Actor {
	var out []*Actor
	r.Live(func(a *Actor) {
		if a.Tile == t {
			out = append(out, a)
		}
	})
	return out
}
