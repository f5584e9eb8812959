package data

import (
	"time"

	"github.com/ironrose/server/internal/components"
)

// DefaultCharacterCreator fills in level-1 starting stats. No publisher
// data is consulted; a real deployment supplies its own CharacterCreator.
type DefaultCharacterCreator struct{}

func (DefaultCharacterCreator) CreateCharacter(req components.CharacterInfo) (components.Character, error) {
	return components.Character{
		Info:  req,
		Level: 1,
	}, nil
}

// DefaultAbilityValueCalculator returns the fixed figures
// original_source/src/game/systems/command.rs hardcodes (attack_range =
// 70 + 120, attack_duration = 1s) until a deployment wires in real ability
// values, resolving spec.md §9's first open question.
type DefaultAbilityValueCalculator struct{}

func (DefaultAbilityValueCalculator) AttackRange(ecsEntityLike) float32 {
	return 70 + 120
}

func (DefaultAbilityValueCalculator) AttackDuration(ecsEntityLike) time.Duration {
	return time.Second
}

// DefaultDropTable always yields nothing; a real deployment supplies its
// own weighted table loaded from the drop-table yaml or a Lua script.
type DefaultDropTable struct{}

func (DefaultDropTable) Roll(tableID int) []components.ItemStack {
	return nil
}
