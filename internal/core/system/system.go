package system

import "time"

// Stage enumerates the scheduler's fixed execution order for one tick.
// Stage 9, the flush boundary, is not a System — it's the point at which
// the scheduler calls World.Flush to apply deferred structural changes
// queued by stages 1-8, before the read-heavy simulation stages run.
type Stage int

const (
	ControlServer              Stage = iota // 1: accept connections, mint client entities
	LoginServerAuthentication               // 2: pre-Account login traffic
	LoginServer                              // 3: post-Account login traffic
	WorldServerAuthentication                // 4: pre-Account world traffic, consumes login token
	WorldServer                              // 5: character selection/CRUD
	GameServerAuthentication                 // 6: game-tier handshake, binds token to character
	GameServerJoin                           // 7: creates zone-joined game entity
	GameServerMove                           // 8: ingests Move/Chat/SetHotbarSlot
	// flush boundary: World.Flush runs here, between stage 8 and stage 10.
	Command                  // 10: advances the command state machine
	UpdatePosition            // 11: integrates Destination into Position
	ClientEntityVisibility    // 12: spawn/despawn per observer
	MonsterSpawn              // 13a: population and AI
	NpcAI                     // 13b
	BotAI                     // 13c
	ApplyDamage               // 14a: derived gameplay stages
	ApplyPendingXP            // 14b
	StatusEffect              // 14c
	ExpireTime                // 14d
	Weight                    // 14e
	Save                      // 14f
	ServerMessagesSender      // 15: flush outbound queue to connections
	CleanupUnreadMessages     // 16: drop unread inbound messages
)

// System is the interface every scheduler-invoked stage implements.
type System interface {
	Stage() Stage
	Run(dt time.Duration)
}

// Func adapts a plain function to System for stages with no state of their
// own (most of the ambient/derived gameplay stages are one-liners today).
type Func struct {
	StageID Stage
	Fn      func(dt time.Duration)
}

func (f Func) Stage() Stage        { return f.StageID }
func (f Func) Run(dt time.Duration) { f.Fn(dt) }
