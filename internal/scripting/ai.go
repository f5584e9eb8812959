package scripting

import (
	"github.com/ironrose/server/internal/components"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// AIDecision is what a script (or the fallback) decides an NPC should do
// this tick; npc_ai turns this into a NextCommand.
type AIDecision struct {
	Kind        components.CommandKind
	Destination components.Point
}

// AI calls a Lua global `ai_decide(npc_id, x, y, z) -> (kind, dx, dy, dz)`
// when one is loaded. kind is "stop" or "move"; attack decisions are left
// to the command stage's target-acquisition logic, not the AI script.
type AI struct {
	engine *Engine
}

func NewAI(engine *Engine) *AI {
	return &AI{engine: engine}
}

// Decide returns the fallback Stop decision when no ai_decide hook is
// loaded — an NPC with no script just stands its ground.
func (a *AI) Decide(npcID int, pos components.Point) AIDecision {
	if !a.engine.HasGlobal("ai_decide") {
		return AIDecision{Kind: components.CommandStop}
	}

	vm := a.engine.vm
	err := vm.CallByParam(lua.P{
		Fn:      vm.GetGlobal("ai_decide"),
		NRet:    4,
		Protect: true,
	}, lua.LNumber(npcID), lua.LNumber(pos.X), lua.LNumber(pos.Y), lua.LNumber(pos.Z))
	if err != nil {
		a.engine.log.Warn("ai_decide failed", zap.Error(err))
		return AIDecision{Kind: components.CommandStop}
	}
	defer vm.Pop(4)

	dz := float32(lua.LVAsNumber(vm.Get(-1)))
	dy := float32(lua.LVAsNumber(vm.Get(-2)))
	dx := float32(lua.LVAsNumber(vm.Get(-3)))
	kind := lua.LVAsString(vm.Get(-4))

	decision := AIDecision{Destination: components.Point{X: dx, Y: dy, Z: dz}}
	if kind == "move" {
		decision.Kind = components.CommandMove
	} else {
		decision.Kind = components.CommandStop
	}
	return decision
}
