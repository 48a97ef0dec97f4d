package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// GrassBehavior реализует поведение травяного блока (поверхность)
type GrassBehavior struct{}

// ID возвращает идентификатор блока
func (b *GrassBehavior) ID() block.BlockID {
	return block.GrassBlockID
}

// Name возвращает имя блока
func (b *GrassBehavior) Name() string {
	return "Grass"
}

// Passable возвращает false
func (b *GrassBehavior) Passable() bool {
	return false
}
