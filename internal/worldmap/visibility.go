package worldmap

import "github.com/ironrose/server/internal/components"

// RVis is the default visibility radius; spec.md §4.9 calls this
// zone-specific but this core doesn't yet have a per-zone override table,
// so every zone shares one radius until a deployment's zone data supplies
// its own.
const RVis = 200

// Visibility tracks, per observer entity id, the set of other entity ids
// currently known to be visible. Update diffs the grid's nearby set
// against the previous known set and returns exactly the ids that newly
// entered or left visibility range this tick.
type Visibility struct {
	known map[uint64]map[uint64]struct{}
}

func NewVisibility() *Visibility {
	return &Visibility{known: make(map[uint64]map[uint64]struct{})}
}

// Diff is one observer's visibility change for this tick.
type Diff struct {
	Observer uint64
	Entered  []uint64
	Left     []uint64
}

// Update recomputes observer's visible set from the grid and positions,
// returning what newly entered or left. pos looks up an entity's current
// position; entities it can't resolve (already removed this tick) are
// treated as out of range.
func (v *Visibility) Update(observer uint64, zone components.ZoneID, observerPos components.Point, grid *Grid, pos func(id uint64) (components.Point, bool)) Diff {
	prev := v.known[observer]
	if prev == nil {
		prev = make(map[uint64]struct{})
	}

	current := make(map[uint64]struct{})
	for _, id := range grid.Nearby(zone, observerPos) {
		if id == observer {
			continue
		}
		p, ok := pos(id)
		if !ok {
			continue
		}
		if observerPos.DistanceXY(p) <= RVis {
			current[id] = struct{}{}
		}
	}

	var diff Diff
	diff.Observer = observer
	for id := range current {
		if _, ok := prev[id]; !ok {
			diff.Entered = append(diff.Entered, id)
		}
	}
	for id := range prev {
		if _, ok := current[id]; !ok {
			diff.Left = append(diff.Left, id)
		}
	}

	v.known[observer] = current
	return diff
}

// Forget drops an observer's visibility tracking entirely, e.g. on
// disconnect or zone leave.
func (v *Visibility) Forget(observer uint64) {
	delete(v.known, observer)
}

// Observers returns every observer that currently has entity in its known
// visible set, for server_messages_sender's entity-scoped fan-out.
func (v *Visibility) Observers(entity uint64) []uint64 {
	var out []uint64
	for observer, visible := range v.known {
		if _, ok := visible[entity]; ok {
			out = append(out, observer)
		}
	}
	return out
}
