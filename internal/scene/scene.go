// Package scene moves thumb-controlled entities in an arche ECS world.
//
// The scene never creates or deletes entities. Callers attach the
// ThumbControlled component to entities they own and run a MovementSystem
// once per tick.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/mlange-42/arche/ecs"
	"github.com/mlange-42/arche/generic"
)

var (
	// ErrInvalidGain is returned for a gain that is not finite and positive.
	ErrInvalidGain = errors.New("scene: invalid gain")
	// ErrInvalidSpeed is returned for a movement speed that is negative or
	// not finite.
	ErrInvalidSpeed = errors.New("scene: invalid movement speed")
	// ErrDeadEntity is returned when the entity is not alive in the world.
	ErrDeadEntity = errors.New("scene: entity is not alive")
)

// Position is an entity's location in scene units.
type Position struct {
	X, Y, Z float64
}

// Vector returns p as an r3.Vector.
func (p Position) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// ThumbControlled marks an entity as driven by the thumbstick signal.
type ThumbControlled struct {
	MovementSpeed float64
}

// Scene wraps a world with the component mappers the adapter needs.
type Scene struct {
	world *ecs.World

	positions  generic.Map[Position]
	controlled generic.Map[ThumbControlled]
	addPos     generic.Map1[Position]
	addCtrl    generic.Map1[ThumbControlled]
	movers     *generic.Filter2[Position, ThumbControlled]
}

// New returns a Scene over world.
func New(world *ecs.World) *Scene {
	return &Scene{
		world:      world,
		positions:  generic.NewMap[Position](world),
		controlled: generic.NewMap[ThumbControlled](world),
		addPos:     generic.NewMap1[Position](world),
		addCtrl:    generic.NewMap1[ThumbControlled](world),
		movers:     generic.NewFilter2[Position, ThumbControlled](),
	}
}

// World returns the wrapped world.
func (s *Scene) World() *ecs.World {
	return s.world
}

// Attach makes e thumb controlled at movementSpeed. An entity without a
// Position gets one at the origin. Attaching an already controlled entity
// updates its speed.
func (s *Scene) Attach(e ecs.Entity, movementSpeed float64) error {
	if math.IsNaN(movementSpeed) || math.IsInf(movementSpeed, 0) || movementSpeed < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, movementSpeed)
	}
	if !s.world.Alive(e) {
		return ErrDeadEntity
	}

	if !s.positions.Has(e) {
		s.addPos.Assign(e, &Position{})
	}
	if c := s.controlled.Get(e); c != nil {
		c.MovementSpeed = movementSpeed
		return nil
	}
	s.addCtrl.Assign(e, &ThumbControlled{MovementSpeed: movementSpeed})
	return nil
}

// Detach stops e from being thumb controlled. Its Position is left alone.
// Detaching an entity that is not controlled does nothing.
func (s *Scene) Detach(e ecs.Entity) error {
	if !s.world.Alive(e) {
		return ErrDeadEntity
	}
	if s.controlled.Has(e) {
		s.addCtrl.Remove(e)
	}
	return nil
}

// Controlled reports whether e carries ThumbControlled.
func (s *Scene) Controlled(e ecs.Entity) bool {
	return s.world.Alive(e) && s.controlled.Has(e)
}

// Position returns e's position.
func (s *Scene) Position(e ecs.Entity) (Position, bool) {
	if !s.world.Alive(e) {
		return Position{}, false
	}
	p := s.positions.Get(e)
	if p == nil {
		return Position{}, false
	}
	return *p, true
}
