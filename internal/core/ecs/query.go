package ecs

// Each2 iterates entities that carry both component A and B, walking the
// smaller store's insertion order and probing the larger one so iteration
// stays deterministic regardless of which store is passed first.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		sa.Each(func(id EntityID, a *A) {
			if b, ok := sb.Get(id); ok {
				fn(id, a, b)
			}
		})
	} else {
		sb.Each(func(id EntityID, b *B) {
			if a, ok := sa.Get(id); ok {
				fn(id, a, b)
			}
		})
	}
}

// Each3 iterates entities that carry components A, B and C, walking the
// smallest store's insertion order and probing the other two.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	smallest := sa.Len()
	which := 0
	if sb.Len() < smallest {
		smallest = sb.Len()
		which = 1
	}
	if sc.Len() < smallest {
		which = 2
	}

	switch which {
	case 0:
		sa.Each(func(id EntityID, a *A) {
			if b, ok := sb.Get(id); ok {
				if c, ok := sc.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	case 1:
		sb.Each(func(id EntityID, b *B) {
			if a, ok := sa.Get(id); ok {
				if c, ok := sc.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	case 2:
		sc.Each(func(id EntityID, c *C) {
			if a, ok := sa.Get(id); ok {
				if b, ok := sb.Get(id); ok {
					fn(id, a, b, c)
				}
			}
		})
	}
}

// Each4 iterates entities that carry components A, B, C and D. The command
// stage needs ClientEntity+Position+Command+NextCommand together, so a
// 3-way probe isn't enough on its own.
func Each4[A, B, C, D any](sa *Store[A], sb *Store[B], sc *Store[C], sd *Store[D], fn func(EntityID, *A, *B, *C, *D)) {
	sizes := [4]int{sa.Len(), sb.Len(), sc.Len(), sd.Len()}
	which := 0
	for i := 1; i < 4; i++ {
		if sizes[i] < sizes[which] {
			which = i
		}
	}

	probe := func(id EntityID) (*A, *B, *C, *D, bool) {
		a, ok := sa.Get(id)
		if !ok {
			return nil, nil, nil, nil, false
		}
		b, ok := sb.Get(id)
		if !ok {
			return nil, nil, nil, nil, false
		}
		c, ok := sc.Get(id)
		if !ok {
			return nil, nil, nil, nil, false
		}
		d, ok := sd.Get(id)
		if !ok {
			return nil, nil, nil, nil, false
		}
		return a, b, c, d, true
	}

	switch which {
	case 0:
		sa.Each(func(id EntityID, _ *A) {
			if a, b, c, d, ok := probe(id); ok {
				fn(id, a, b, c, d)
			}
		})
	case 1:
		sb.Each(func(id EntityID, _ *B) {
			if a, b, c, d, ok := probe(id); ok {
				fn(id, a, b, c, d)
			}
		})
	case 2:
		sc.Each(func(id EntityID, _ *C) {
			if a, b, c, d, ok := probe(id); ok {
				fn(id, a, b, c, d)
			}
		})
	case 3:
		sd.Each(func(id EntityID, _ *D) {
			if a, b, c, d, ok := probe(id); ok {
				fn(id, a, b, c, d)
			}
		})
	}
}
