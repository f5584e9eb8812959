package resources

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/ironrose/server/internal/core/ecs"
)

// LoginToken bridges a login-tier session to the world tier, and later the
// world tier to the game tier, per spec.md §3. Token is nonzero and
// unpredictable; SelectedCharacter is nil until world tier records a
// character selection.
type LoginToken struct {
	Token               uint32
	Username            string
	SelectedWorldServer ecs.EntityID
	SelectedGameServer  ecs.EntityID
	SelectedCharacter   *string

	issuedAt time.Time
}

// LoginTokens is owned by the simulation and mutated only during the
// login/world/game authentication stages. Tokens older than T_tok with no
// bound game session are removed by a periodic sweep (see Sweep).
type LoginTokens struct {
	byToken map[uint32]*LoginToken
}

func NewLoginTokens() *LoginTokens {
	return &LoginTokens{byToken: make(map[uint32]*LoginToken)}
}

// T_tok is the minimum abandoned-token lifetime before Sweep reclaims it,
// per spec.md §3's invariant ("timeout T_tok ≥ 30 s").
const T_tok = 30 * time.Second

// Issue mints a fresh, unique, nonzero token bound to the given account
// and world/game server selection.
func (lt *LoginTokens) Issue(username string, worldServer, gameServer ecs.EntityID) *LoginToken {
	var token uint32
	for {
		token = randomNonzeroUint32()
		if _, exists := lt.byToken[token]; !exists {
			break
		}
	}
	t := &LoginToken{
		Token:               token,
		Username:            username,
		SelectedWorldServer: worldServer,
		SelectedGameServer:  gameServer,
		issuedAt:            time.Now(),
	}
	lt.byToken[token] = t
	return t
}

func (lt *LoginTokens) Lookup(token uint32) (*LoginToken, bool) {
	t, ok := lt.byToken[token]
	return t, ok
}

func (lt *LoginTokens) Consume(token uint32) {
	delete(lt.byToken, token)
}

// Sweep removes tokens older than T_tok that have never had a character
// selected (selection implies an in-progress or completed handoff worth
// keeping alive a little longer — game tier consumes the token outright on
// success, so anything left unselected past T_tok is an abandoned login).
func (lt *LoginTokens) Sweep(now time.Time) {
	for token, t := range lt.byToken {
		if t.SelectedCharacter == nil && now.Sub(t.issuedAt) > T_tok {
			delete(lt.byToken, token)
		}
	}
}

func randomNonzeroUint32() uint32 {
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			continue
		}
		if v := binary.LittleEndian.Uint32(buf[:]); v != 0 {
			return v
		}
	}
}
