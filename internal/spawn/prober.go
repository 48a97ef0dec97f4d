package spawn

import (
	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// CellState — трёхзначное состояние клетки объёма
type CellState uint8

const (
	CellEmpty   CellState = iota // Пустая клетка, сущность может её занимать
	CellSolid                    // Твёрдая клетка
	CellUnknown                  // Данные ещё не загружены
)

// String возвращает строковое представление состояния клетки
func (c CellState) String() string {
	switch c {
	case CellEmpty:
		return "EMPTY"
	case CellSolid:
		return "SOLID"
	case CellUnknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// Volume — внешний интерфейс объёма: отдаёт ID блока в точке.
// Для незагруженных данных реализация возвращает block.UnloadedBlockID.
type Volume interface {
	BlockAt(pos vec.Vec3) (block.BlockID, error)
}

// Prober отвечает на запросы о состоянии клеток объёма. Чистые чтения:
// состояние никогда не кэшируется, каждая проверка заново спрашивает
// объём, так как его содержимое может меняться между вызовами.
type Prober struct {
	volume Volume
}

// NewProber создаёт пробер поверх интерфейса объёма
func NewProber(volume Volume) *Prober {
	return &Prober{volume: volume}
}

// CellAt возвращает состояние клетки в указанной точке.
// Ошибка интерфейса объёма трактуется как "данные недоступны" и
// деградирует в CellUnknown, а не в отказ поиска.
func (p *Prober) CellAt(pos vec.Vec3) CellState {
	id, err := p.volume.BlockAt(pos)
	if err != nil {
		return CellUnknown
	}

	switch {
	case id == block.UnloadedBlockID:
		return CellUnknown
	case block.IsPassable(id):
		return CellEmpty
	default:
		return CellSolid
	}
}

// HasBubble возвращает true, если height клеток строго выше pos пусты.
// Возвращает false сразу при первой твёрдой или неизвестной клетке:
// различать "пузыря нет" и "пока неизвестно" — задача планировщика,
// который проверяет состояния клеток напрямую во время спуска.
func (p *Prober) HasBubble(pos vec.Vec3, height int) bool {
	for i := 1; i <= height; i++ {
		if p.CellAt(pos.Up(i)) != CellEmpty {
			return false
		}
	}
	return true
}
