// Package components defines the data every entity in the simulation can
// carry. Each type here is attached/detached by entity id through an
// ecs.Store[T]; none of them hold behavior.
package components

import (
	"math"
	"time"

	"github.com/ironrose/server/internal/core/ecs"
)

// ZoneID identifies a server-authoritative spatial partition. Broadcasts
// and visibility are scoped by zone.
type ZoneID uint32

// Point is a position in 3-space. The game plane is XY; Z is elevation.
type Point struct {
	X, Y, Z float32
}

// DistanceXY returns the planar distance between two points, ignoring Z —
// the command stage's range checks are XY-only (original_source/.../command.rs).
func (p Point) DistanceXY(o Point) float32 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}

// Position is mutated only by the update_position stage.
type Position struct {
	Zone  ZoneID
	Point Point
}

// Destination is present iff the entity is currently moving toward it.
type Destination struct {
	Point Point
}

// CommandKind discriminates the Command union.
type CommandKind int

const (
	CommandStop CommandKind = iota
	CommandMove
	CommandAttack
)

// Command is an entity's current in-progress intent. Target is the zero
// EntityID when there is none. RequiredDuration is nil for Stop and Move;
// present for Attack (the attack animation is stationary and timed).
type Command struct {
	Kind             CommandKind
	Target           ecs.EntityID
	Duration         time.Duration
	RequiredDuration *time.Duration
}

// Complete reports whether this command has run its required duration.
func (c *Command) Complete() bool {
	return c.RequiredDuration == nil || c.Duration > *c.RequiredDuration
}

// NextCommand is a queued intent, consumed once the current Command
// completes. Represented the same shape as Command; Kind/Target/fields
// describe the requested transition, not an in-progress one.
type NextCommand struct {
	Kind   CommandKind
	Target ecs.EntityID
	// Destination is the requested move/attack-chase point. Unused for Stop.
	Destination Point
}

// Account is attached to a client entity once login succeeds.
type Account struct {
	Name            string
	CharacterNames  []string // capacity 5
}

// CharacterListItem is a projection of a Character used by GetCharacterList.
type CharacterListItem struct {
	Slot  int
	Name  string
	Level int
}

// CharacterList holds the account's loaded characters, capacity 5.
type CharacterList struct {
	Characters []Character
}

// CharacterInfo holds the cosmetic/identity fields of a character.
type CharacterInfo struct {
	Name       string
	Gender     int
	Face       int
	Hair       int
	BirthStone int
}

// Character is one persisted player character record.
type Character struct {
	Info       CharacterInfo
	Level      int
	Equipment  []ItemStack
	Inventory  []ItemStack
	Hotbar     [10]HotbarSlot
	SkillList  []int
	Position   Position
	DeleteTime *time.Time // nil unless marked for deletion
}

// ItemStack is a minimal inventory/equipment entry; item definitions live
// in the external item table (internal/data).
type ItemStack struct {
	ItemID   int
	Quantity int
}

// HotbarSlot is one quick-slot binding; zero value means empty.
type HotbarSlot struct {
	Kind int // 0 = empty, 1 = skill, 2 = item
	ID   int
}

// ClientEntity is the compact, zone-scoped network identifier assigned on
// zone entry and cleared on leave.
type ClientEntity struct {
	ID uint32
}

// HealthPoints tracks an entity's current and maximum hit points.
type HealthPoints struct {
	Current uint32
	Max     uint32
}

// AIControlled tags an entity as driven by npc_ai rather than client input;
// the spawner attaches it to every monster/NPC it creates.
type AIControlled struct {
	AIScript string // Lua script id from the zone table; npc_ai does not read it and always calls ai_decide
}

// PendingDamage is a queued, unapplied hit; apply_damage drains it into
// HealthPoints and removes the component the same tick it's seen.
type PendingDamage struct {
	Amount uint32
	Source ecs.EntityID
}

// DeathMarker is attached the tick an entity's HealthPoints reaches zero;
// expire_time destroys the corpse once corpseLifetime has elapsed.
type DeathMarker struct {
	At time.Time
}

// LoginTokenRef records the login token a world/game-tier connection
// entity authenticated with, so later stages (character selection, game
// join) can look the token back up in resources.LoginTokens without the
// I/O domain ever holding simulation state itself.
type LoginTokenRef struct {
	Token uint32
}
