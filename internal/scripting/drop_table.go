package scripting

import (
	"github.com/ironrose/server/internal/components"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// DropTable implements data.DropTable by calling a Lua global
// `roll_drop_table(table_id) -> {{item_id, quantity}, ...}` when one is
// loaded, falling back to no drops otherwise.
type DropTable struct {
	engine *Engine
}

func NewDropTable(engine *Engine) *DropTable {
	return &DropTable{engine: engine}
}

func (d *DropTable) Roll(tableID int) []components.ItemStack {
	if !d.engine.HasGlobal("roll_drop_table") {
		return nil
	}

	vm := d.engine.vm
	if err := vm.CallByParam(lua.P{
		Fn:      vm.GetGlobal("roll_drop_table"),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(tableID)); err != nil {
		d.engine.log.Warn("roll_drop_table failed", zap.Error(err))
		return nil
	}
	defer vm.Pop(1)

	result, ok := vm.Get(-1).(*lua.LTable)
	if !ok {
		return nil
	}

	var drops []components.ItemStack
	result.ForEach(func(_, entryVal lua.LValue) {
		entry, ok := entryVal.(*lua.LTable)
		if !ok {
			return
		}
		itemID := int(lua.LVAsNumber(entry.RawGetInt(1)))
		qty := int(lua.LVAsNumber(entry.RawGetInt(2)))
		if qty <= 0 {
			qty = 1
		}
		drops = append(drops, components.ItemStack{ItemID: itemID, Quantity: qty})
	})
	return drops
}
