package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// SandBehavior реализует поведение песчаного блока
type SandBehavior struct{}

// ID возвращает идентификатор блока
func (b *SandBehavior) ID() block.BlockID {
	return block.SandBlockID
}

// Name возвращает имя блока
func (b *SandBehavior) Name() string {
	return "Sand"
}

// Passable возвращает false
func (b *SandBehavior) Passable() bool {
	return false
}
