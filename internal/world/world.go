package world

import (
	"sync"

	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// WorldManager управляет загруженными колонками чанков и отвечает на
// запросы "какой блок в этой точке". Для незагруженных колонок чтение
// возвращает сентинел block.UnloadedBlockID — чтение никогда не
// генерирует ландшафт само по себе.
type WorldManager struct {
	chunks    map[vec.Vec2]*Chunk // Загруженные колонки
	generator *WorldGenerator     // Генератор ландшафта (может быть nil)
	seed      int64               // Глобальный сид для генерации
	mu        sync.RWMutex        // Мьютекс для карты чанков
}

// NewWorldManager создаёт менеджер мира с генератором на указанном сиде
func NewWorldManager(seed int64) *WorldManager {
	return &WorldManager{
		chunks:    make(map[vec.Vec2]*Chunk),
		generator: NewWorldGenerator(seed),
		seed:      seed,
	}
}

// NewEmptyWorldManager создаёт менеджер без генератора: LoadChunk
// загружает пустые (воздушные) колонки. Используется в тестах и как
// каркас для миров, наполняемых вручную через SetBlock.
func NewEmptyWorldManager() *WorldManager {
	return &WorldManager{
		chunks: make(map[vec.Vec2]*Chunk),
	}
}

// BlockAt возвращает ID блока в глобальных координатах.
// Реализует интерфейс объёма для поискового модуля: для незагруженной
// колонки возвращается UnloadedBlockID, ошибок не бывает.
func (wm *WorldManager) BlockAt(pos vec.Vec3) (block.BlockID, error) {
	return wm.GetBlockID(pos), nil
}

// GetBlockID возвращает ID блока в глобальных координатах
func (wm *WorldManager) GetBlockID(pos vec.Vec3) block.BlockID {
	wm.mu.RLock()
	chunk, exists := wm.chunks[pos.ChunkColumn()]
	wm.mu.RUnlock()

	if !exists {
		return block.UnloadedBlockID
	}
	return chunk.GetBlock(pos.LocalInChunk())
}

// SetBlock устанавливает блок в глобальных координатах.
// Незагруженная колонка предварительно загружается.
func (wm *WorldManager) SetBlock(pos vec.Vec3, id block.BlockID) {
	chunk := wm.LoadChunk(pos.ChunkColumn())
	chunk.SetBlock(pos.LocalInChunk(), id)
}

// LoadChunk возвращает колонку чанка, загружая её при необходимости.
// При наличии генератора колонка наполняется ландшафтом, иначе воздухом.
func (wm *WorldManager) LoadChunk(coords vec.Vec2) *Chunk {
	wm.mu.RLock()
	chunk, exists := wm.chunks[coords]
	wm.mu.RUnlock()
	if exists {
		return chunk
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	// Проверяем ещё раз: колонку могли загрузить, пока мы брали блокировку
	if chunk, exists = wm.chunks[coords]; exists {
		return chunk
	}

	if wm.generator != nil {
		chunk = wm.generator.GenerateChunk(coords)
	} else {
		chunk = NewChunk(coords)
	}
	wm.chunks[coords] = chunk
	return chunk
}

// UnloadChunk выгружает колонку чанка. Последующие чтения из неё будут
// возвращать UnloadedBlockID.
func (wm *WorldManager) UnloadChunk(coords vec.Vec2) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	delete(wm.chunks, coords)
}

// IsChunkLoaded возвращает true, если колонка загружена
func (wm *WorldManager) IsChunkLoaded(coords vec.Vec2) bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	_, exists := wm.chunks[coords]
	return exists
}

// LoadedChunks возвращает число загруженных колонок
func (wm *WorldManager) LoadedChunks() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.chunks)
}

// Seed возвращает сид мира
func (wm *WorldManager) Seed() int64 {
	return wm.seed
}
