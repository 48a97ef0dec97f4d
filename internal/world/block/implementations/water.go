package implementations

import (
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// WaterBehavior реализует поведение блока воды
type WaterBehavior struct{}

// ID возвращает идентификатор блока
func (b *WaterBehavior) ID() block.BlockID {
	return block.WaterBlockID
}

// Name возвращает имя блока
func (b *WaterBehavior) Name() string {
	return "Water"
}

// Passable возвращает false: в воде сущность не размещаем
func (b *WaterBehavior) Passable() bool {
	return false
}
