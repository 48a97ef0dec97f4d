package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// StoneBehavior реализует поведение каменного блока
type StoneBehavior struct{}

// ID возвращает идентификатор блока
func (b *StoneBehavior) ID() block.BlockID {
	return block.StoneBlockID
}

// Name возвращает имя блока
func (b *StoneBehavior) Name() string {
	return "Stone"
}

// Passable возвращает false: камень — твёрдая опора
func (b *StoneBehavior) Passable() bool {
	return false
}
