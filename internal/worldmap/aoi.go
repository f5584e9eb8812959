// Package worldmap implements per-zone area-of-interest tracking: a
// cell-based spatial grid plus the observer visibility sets the
// client_entity_visibility stage diffs each tick. Grounded on the
// teacher's internal/world/aoi.go grid, generalized from a single global
// map id to spec.md's per-zone ZoneID scoping.
package worldmap

import "github.com/ironrose/server/internal/components"

// cellSize equals the visibility radius, so the 3x3 neighbourhood Nearby
// scans covers every point within RVis; it's a tuning constant, not a
// protocol-visible value.
const cellSize = RVis

type cellKey struct {
	zone   components.ZoneID
	cx, cy int32
}

func toCellCoord(v float32) int32 {
	c := int32(v) / cellSize
	if v < 0 && int32(v)%cellSize != 0 {
		c--
	}
	return c
}

// Grid tracks which entities occupy which cell, per zone, so nearby-entity
// lookups don't need an O(n^2) sweep over the whole zone population.
type Grid struct {
	cells map[cellKey]map[uint64]struct{}
	at    map[uint64]cellKey
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[uint64]struct{}),
		at:    make(map[uint64]cellKey),
	}
}

func keyFor(zone components.ZoneID, p components.Point) cellKey {
	return cellKey{zone: zone, cx: toCellCoord(p.X), cy: toCellCoord(p.Y)}
}

// Add places id into the grid at pos.
func (g *Grid) Add(id uint64, zone components.ZoneID, pos components.Point) {
	k := keyFor(zone, pos)
	g.insert(id, k)
}

// Remove takes id out of the grid entirely.
func (g *Grid) Remove(id uint64) {
	k, ok := g.at[id]
	if !ok {
		return
	}
	delete(g.cells[k], id)
	if len(g.cells[k]) == 0 {
		delete(g.cells, k)
	}
	delete(g.at, id)
}

// Move updates id's cell if its new position crossed a cell boundary.
func (g *Grid) Move(id uint64, zone components.ZoneID, pos components.Point) {
	newKey := keyFor(zone, pos)
	if old, ok := g.at[id]; ok && old == newKey {
		return
	}
	g.Remove(id)
	g.insert(id, newKey)
}

func (g *Grid) insert(id uint64, k cellKey) {
	if g.cells[k] == nil {
		g.cells[k] = make(map[uint64]struct{})
	}
	g.cells[k][id] = struct{}{}
	g.at[id] = k
}

// Nearby returns every id sharing the 3x3 cell neighborhood around pos in
// zone, including id itself if present. This is a coarse pre-filter — the
// caller still applies the exact R_vis radius check.
func (g *Grid) Nearby(zone components.ZoneID, pos components.Point) []uint64 {
	center := keyFor(zone, pos)
	var out []uint64
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{zone: zone, cx: center.cx + dx, cy: center.cy + dy}
			for id := range g.cells[k] {
				out = append(out, id)
			}
		}
	}
	return out
}
