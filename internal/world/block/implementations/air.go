package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// AirBehavior реализует поведение пустого блока (воздуха)
type AirBehavior struct{}

// ID возвращает идентификатор блока
func (b *AirBehavior) ID() block.BlockID {
	return block.AirBlockID
}

// Name возвращает имя блока
func (b *AirBehavior) Name() string {
	return "Air"
}

// Passable возвращает true: воздух — единственный полностью пустой блок
func (b *AirBehavior) Passable() bool {
	return true
}
