package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// DirtBehavior реализует поведение блока земли
type DirtBehavior struct{}

// ID возвращает идентификатор блока
func (b *DirtBehavior) ID() block.BlockID {
	return block.DirtBlockID
}

// Name возвращает имя блока
func (b *DirtBehavior) Name() string {
	return "Dirt"
}

// Passable возвращает false
func (b *DirtBehavior) Passable() bool {
	return false
}
