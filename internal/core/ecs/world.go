package ecs

// World is the top-level ECS container. It owns the entity pool, the
// component registry, and a deferred command buffer flushed at an explicit
// boundary each tick (nominally right after the join stage, per spec).
// Systems that discover a structural change — spawn, destroy, component
// attach — while iterating a store queue it here instead of mutating the
// store directly, so in-progress iteration elsewhere in the same tick never
// observes a half-applied change.
type World struct {
	pool         *Pool
	registry     *Registry
	destroyQueue []EntityID
	deferred     []func(*World)
}

func NewWorld() *World {
	return &World{
		pool:         NewPool(),
		registry:     NewRegistry(),
		destroyQueue: make([]EntityID, 0, 64),
		deferred:     make([]func(*World), 0, 64),
	}
}

func (w *World) Pool() *Pool          { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for removal at the next Flush.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Defer queues a structural-change closure to run at the next Flush, in the
// order it was queued. Use this from within a store's Each callback instead
// of calling Set/Remove on that same store mid-iteration.
func (w *World) Defer(fn func(*World)) {
	w.deferred = append(w.deferred, fn)
}

// Flush applies every deferred command in queue order, then destroys all
// entities marked during this tick. Called once per tick at the scheduler's
// flush boundary.
func (w *World) Flush() {
	cmds := w.deferred
	w.deferred = nil
	for _, cmd := range cmds {
		cmd(w)
	}

	for _, id := range w.destroyQueue {
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
	}
	w.destroyQueue = w.destroyQueue[:0]
}
