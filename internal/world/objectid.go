package world

import "sync/atomic"

// IDGenerator hands out unique ids for world entities.
//
// ID ranges (convention):
//
//	0x0000000000000000:                      invalid / no group
//	0x0000000010000000 - 0x00000000FFFFFFFF: players
//	0x0000000100000000 - ...:                in-game groups
type IDGenerator struct {
	nextPlayerID atomic.Uint64
	nextGroupID  atomic.Uint64
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	gen := &IDGenerator{}
	gen.nextPlayerID.Store(0x10000000)
	gen.nextGroupID.Store(0x100000000)
	return gen
}

// NextPlayerID generates next unique player id.
// Thread-safe via atomic increment.
func (g *IDGenerator) NextPlayerID() uint64 {
	return g.nextPlayerID.Add(1)
}

// NextGroupID generates next unique group id.
// Thread-safe via atomic increment.
func (g *IDGenerator) NextGroupID() uint64 {
	return g.nextGroupID.Add(1)
}
