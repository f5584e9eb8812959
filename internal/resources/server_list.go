// Package resources holds process-wide shared state handed to stage
// handlers: the server directory, login tokens, the per-zone client-entity
// id allocator, the outbound broadcast queue, and the tick clock (the
// game-data bundle lives in internal/data). All of it is owned by the simulation goroutine; the
// I/O domain never reaches in here directly, per the concurrency model.
package resources

import "github.com/ironrose/server/internal/core/ecs"

// GameServer is one channel behind a WorldServer.
type GameServer struct {
	Entity ecs.EntityID
	Name   string
	IP     string
	Port   int
	Seed   int32
}

// WorldServer is one entry in ServerList; index position is the
// wire-visible world-server id.
type WorldServer struct {
	Entity   ecs.EntityID
	Name     string
	IP       string
	Port     int
	Seed     int32
	Channels []GameServer
}

// ServerList is the read-mostly registry of world servers and their game
// channels, populated once at startup.
type ServerList struct {
	Worlds []WorldServer
}

func NewServerList() *ServerList {
	return &ServerList{}
}

func (s *ServerList) World(index int) (WorldServer, bool) {
	if index < 0 || index >= len(s.Worlds) {
		return WorldServer{}, false
	}
	return s.Worlds[index], true
}

func (s *ServerList) Channel(worldIndex, channelIndex int) (GameServer, bool) {
	w, ok := s.World(worldIndex)
	if !ok || channelIndex < 0 || channelIndex >= len(w.Channels) {
		return GameServer{}, false
	}
	return w.Channels[channelIndex], true
}
