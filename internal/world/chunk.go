package world

import (
	"sync"

	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
)

const (
	// ChunkSize — размер колонки чанка по горизонтали (X и Z)
	ChunkSize = 16

	// WorldHeight — высота мира в блоках; допустимые Y в [0, WorldHeight)
	WorldHeight = 256
)

// Chunk представляет колонку мира размером 16x16 блоков на всю высоту.
// Координаты колонки задаются в vec.Vec2, где Y поля — это Z мира.
type Chunk struct {
	Coords vec.Vec2 // Координаты колонки чанка (X, Z)

	// Blocks[x][z][y] — блоки колонки
	Blocks [ChunkSize][ChunkSize][WorldHeight]block.BlockID

	ChangeCounter int          // Счетчик изменений
	Mu            sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт новый чанк с указанными координатами колонки.
// Нулевое значение BlockID — воздух, поэтому чанк рождается пустым.
func NewChunk(coords vec.Vec2) *Chunk {
	return &Chunk{
		Coords: coords,
	}
}

// GetBlock возвращает ID блока по локальным координатам.
// Координаты вне вертикального диапазона считаются воздухом.
func (c *Chunk) GetBlock(local vec.Vec3) block.BlockID {
	if local.Y < 0 || local.Y >= WorldHeight {
		return block.AirBlockID
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.Blocks[local.X][local.Z][local.Y]
}

// SetBlock устанавливает блок по локальным координатам
func (c *Chunk) SetBlock(local vec.Vec3, id block.BlockID) {
	if local.Y < 0 || local.Y >= WorldHeight {
		return
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	if c.Blocks[local.X][local.Z][local.Y] == id {
		return
	}
	c.Blocks[local.X][local.Z][local.Y] = id
	c.ChangeCounter++
}

// HasChanges возвращает true, если в чанке есть изменения
func (c *Chunk) HasChanges() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	return c.ChangeCounter > 0
}
