package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/route-link-planner/core"
	"github.com/signalsfoundry/route-link-planner/model"
)

var (
	// ErrVehicleNotFound is returned when a vehicle ID is not in the catalog.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrVehicleExists is returned by Add for a duplicate ID.
	ErrVehicleExists = errors.New("vehicle already exists")
	// ErrInvalidVehicle is returned for profiles that fail validation.
	ErrInvalidVehicle = errors.New("invalid vehicle")
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventVehicleAdded EventType = iota
	EventVehicleUpdated
	EventVehicleRemoved
)

func (t EventType) String() string {
	switch t {
	case EventVehicleAdded:
		return "added"
	case EventVehicleUpdated:
		return "updated"
	case EventVehicleRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when the catalog changes.
type Event struct {
	Type    EventType
	Vehicle model.VehicleProfile
}

// Catalog is an in-memory, thread-safe store of vehicle profiles.
type Catalog struct {
	mu sync.RWMutex

	vehicles map[string]model.VehicleProfile

	nextSub int
	subs    map[int]func(Event)
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		vehicles: make(map[string]model.VehicleProfile),
		subs:     make(map[int]func(Event)),
	}
}

func validateVehicle(v model.VehicleProfile) error {
	if v.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidVehicle)
	}
	// Same rules the planner applies, so a stored vehicle is always usable.
	if err := core.ValidateVehicleProfile(v); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidVehicle, v.ID, err)
	}
	return nil
}

// Add inserts a new vehicle. It fails if the ID already exists.
func (c *Catalog) Add(v model.VehicleProfile) error {
	if err := validateVehicle(v); err != nil {
		return err
	}
	c.mu.Lock()
	if _, exists := c.vehicles[v.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrVehicleExists, v.ID)
	}
	c.vehicles[v.ID] = v
	subs := c.snapshotSubs()
	c.mu.Unlock()

	notify(subs, Event{Type: EventVehicleAdded, Vehicle: v})
	return nil
}

// Upsert inserts or replaces a vehicle.
func (c *Catalog) Upsert(v model.VehicleProfile) error {
	if err := validateVehicle(v); err != nil {
		return err
	}
	c.mu.Lock()
	_, existed := c.vehicles[v.ID]
	c.vehicles[v.ID] = v
	subs := c.snapshotSubs()
	c.mu.Unlock()

	typ := EventVehicleAdded
	if existed {
		typ = EventVehicleUpdated
	}
	notify(subs, Event{Type: typ, Vehicle: v})
	return nil
}

// Remove deletes a vehicle by ID.
func (c *Catalog) Remove(id string) error {
	c.mu.Lock()
	v, ok := c.vehicles[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrVehicleNotFound, id)
	}
	delete(c.vehicles, id)
	subs := c.snapshotSubs()
	c.mu.Unlock()

	notify(subs, Event{Type: EventVehicleRemoved, Vehicle: v})
	return nil
}

// Get returns the vehicle with the given ID.
func (c *Catalog) Get(id string) (model.VehicleProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vehicles[id]
	if !ok {
		return model.VehicleProfile{}, fmt.Errorf("%w: %q", ErrVehicleNotFound, id)
	}
	return v, nil
}

// List returns a snapshot of all vehicles ordered by ID.
func (c *Catalog) List() []model.VehicleProfile {
	c.mu.RLock()
	res := make([]model.VehicleProfile, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		res = append(res, v)
	}
	c.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len reports the number of vehicles.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vehicles)
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function. Callbacks run outside the lock on the mutating
// goroutine.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// caller holds c.mu
func (c *Catalog) snapshotSubs() []func(Event) {
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
