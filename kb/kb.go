// Package kb holds the bodies of a scenario in a thread-safe store.
package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/frame-kinematics/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventBodyAdded EventType = iota
	EventBodyUpdated
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type EventType
	Body model.BodyDefinition
}

// KnowledgeBase is an in-memory, thread-safe store for scenario bodies.
type KnowledgeBase struct {
	mu sync.RWMutex

	bodies map[string]*model.BodyDefinition

	nextSub int
	subs    map[int]func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		bodies: make(map[string]*model.BodyDefinition),
		subs:   make(map[int]func(Event)),
	}
}

// AddBody adds a new body. It returns an error if the ID is empty or already
// exists.
func (kb *KnowledgeBase) AddBody(b *model.BodyDefinition) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("body must have an ID")
	}
	kb.mu.Lock()
	if _, exists := kb.bodies[b.ID]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("body with ID %q already exists", b.ID)
	}
	// store pointer so that the sampling loop can update in-place
	kb.bodies[b.ID] = b
	event := Event{Type: EventBodyAdded, Body: *b}
	subs := kb.subscribers()
	kb.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// GetBody returns the body with the given ID, or nil if not found.
func (kb *KnowledgeBase) GetBody(id string) *model.BodyDefinition {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.bodies[id]
}

// ListBodies returns a snapshot slice of all bodies, ordered by ID.
func (kb *KnowledgeBase) ListBodies() []*model.BodyDefinition {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.BodyDefinition, 0, len(kb.bodies))
	for _, b := range kb.bodies {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// MassiveBodies returns the bodies with a positive gravitational parameter,
// ordered by ID.
func (kb *KnowledgeBase) MassiveBodies() []*model.BodyDefinition {
	var res []*model.BodyDefinition
	for _, b := range kb.ListBodies() {
		if b.IsMassive() {
			res = append(res, b)
		}
	}
	return res
}

// UpdateBodyPosition updates a body's coordinates and notifies subscribers.
func (kb *KnowledgeBase) UpdateBodyPosition(id string, pos model.Motion) error {
	kb.mu.Lock()
	b, ok := kb.bodies[id]
	if !ok {
		kb.mu.Unlock()
		return fmt.Errorf("body with ID %q not found", id)
	}
	b.Coordinates = pos
	event := Event{
		Type: EventBodyUpdated,
		Body: *b, // copy for safety
	}
	subs := kb.subscribers()
	kb.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	for _, sub := range subs {
		sub(event)
	}
	return nil
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	id := kb.nextSub
	kb.nextSub++
	kb.subs[id] = fn

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		delete(kb.subs, id)
	}
}

// subscribers returns the callbacks in subscription order. Callers hold mu.
func (kb *KnowledgeBase) subscribers() []func(Event) {
	ids := make([]int, 0, len(kb.subs))
	for id := range kb.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	res := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		res = append(res, kb.subs[id])
	}
	return res
}
