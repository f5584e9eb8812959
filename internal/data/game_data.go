// Package data loads the publisher-specific static zone table (zones with
// their NPC spawn lists) and hosts the small set of capability interfaces
// — CharacterCreator, AbilityValueCalculator, DropTable — that spec.md
// treats as external, swappable collaborators (§9 "Polymorphism of
// game-data services"). One GameData bundle is built at startup and shared
// read-only by every stage thereafter.
package data

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironrose/server/internal/components"
	"gopkg.in/yaml.v3"
)

// CharacterCreator validates and fills in a new character's starting
// stats. A deployment may plug in a publisher-specific implementation;
// DefaultCharacterCreator below is what this core runs with out of the box.
type CharacterCreator interface {
	CreateCharacter(req components.CharacterInfo) (components.Character, error)
}

// AbilityValueCalculator resolves the numeric placeholders spec.md §9
// flags — attack range and attack duration — from an attacker's ability
// values instead of the fixed literals in command.rs.
type AbilityValueCalculator interface {
	AttackRange(attacker ecsEntityLike) float32
	AttackDuration(attacker ecsEntityLike) time.Duration
}

// ecsEntityLike avoids an import cycle back into ecs/components for the
// calculator signature; callers pass whatever per-entity stat snapshot
// they have. The default calculator ignores it entirely.
type ecsEntityLike = any

// DropTable resolves what a killed monster or harvested node yields.
type DropTable interface {
	Roll(tableID int) []components.ItemStack
}

// ZoneDef is one entry in the static zone table: bootstrap data for the
// spawner (internal/spawner) and the NPC population it places at startup.
type ZoneDef struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
	NPCs []NPCSpawnDef `yaml:"npcs"`
}

type NPCSpawnDef struct {
	NPCID       int               `yaml:"npc_id"`
	Name        string            `yaml:"name"`
	Position    components.Point  `yaml:"position"`
	Cap         int               `yaml:"cap"`
	RadiusSpawn float32           `yaml:"radius_spawn"`
	IntervalSec int               `yaml:"interval_sec"`
	DropTableID int               `yaml:"drop_table_id"`
	MaxHP       uint32            `yaml:"max_hp"`
	AIScript    string            `yaml:"ai_script"`
}

// GameData bundles every static table and capability a deployment needs.
type GameData struct {
	Zones []ZoneDef

	CharacterCreator       CharacterCreator
	AbilityValueCalculator AbilityValueCalculator
	DropTable              DropTable
}

// Load reads every *.yaml file in dir as a ZoneDef and wires the default
// capability implementations. A deployment that wants publisher-specific
// CreateCharacter/AttackRange/Roll behavior replaces those three fields
// after Load returns.
func Load(dir string) (*GameData, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	gd := &GameData{
		CharacterCreator:       DefaultCharacterCreator{},
		AbilityValueCalculator: DefaultAbilityValueCalculator{},
		DropTable:              DefaultDropTable{},
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var zone ZoneDef
		if err := yaml.Unmarshal(raw, &zone); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		gd.Zones = append(gd.Zones, zone)
	}
	return gd, nil
}
