package world

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// chunkSnapshot — сериализованная колонка чанка.
// Блоки упакованы в little-endian uint16 поток (JSON закодирует в base64).
type chunkSnapshot struct {
	Coords vec.Vec2 `json:"coords"`
	Blocks []byte   `json:"blocks"`
}

// worldSnapshot — сериализованное состояние загруженной части мира
type worldSnapshot struct {
	Seed   int64           `json:"seed"`
	Chunks []chunkSnapshot `json:"chunks"`
}

// SaveSnapshot сохраняет все загруженные колонки в zstd-сжатый файл.
// Снимок покрывает только данные объёма; очередь отложенных поисков
// намеренно не сохраняется.
func (wm *WorldManager) SaveSnapshot(path string) error {
	wm.mu.RLock()
	snap := worldSnapshot{
		Seed:   wm.seed,
		Chunks: make([]chunkSnapshot, 0, len(wm.chunks)),
	}
	for coords, chunk := range wm.chunks {
		snap.Chunks = append(snap.Chunks, chunkSnapshot{
			Coords: coords,
			Blocks: packBlocks(chunk),
		})
	}
	wm.mu.RUnlock()

	// Сортируем для детерминированного снимка
	sort.Slice(snap.Chunks, func(i, j int) bool {
		a, b := snap.Chunks[i].Coords, snap.Chunks[j].Coords
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("не удалось создать файл снимка: %w", err)
	}
	defer file.Close()

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("не удалось создать zstd writer: %w", err)
	}

	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return zw.Close()
}

// LoadSnapshot загружает колонки из файла снимка, добавляя их к уже
// загруженным (совпадающие координаты перезаписываются).
func (wm *WorldManager) LoadSnapshot(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("не удалось открыть файл снимка: %w", err)
	}
	defer file.Close()

	zr, err := zstd.NewReader(file)
	if err != nil {
		return fmt.Errorf("не удалось создать zstd reader: %w", err)
	}
	defer zr.Close()

	var snap worldSnapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return fmt.Errorf("ошибка десериализации снимка: %w", err)
	}

	chunks := make(map[vec.Vec2]*Chunk, len(snap.Chunks))
	for _, cs := range snap.Chunks {
		chunk, err := unpackBlocks(cs)
		if err != nil {
			return err
		}
		chunks[cs.Coords] = chunk
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	for coords, chunk := range chunks {
		wm.chunks[coords] = chunk
	}
	return nil
}

// packBlocks упаковывает блоки колонки в little-endian uint16 поток
func packBlocks(chunk *Chunk) []byte {
	chunk.Mu.RLock()
	defer chunk.Mu.RUnlock()

	buf := make([]byte, 2*ChunkSize*ChunkSize*WorldHeight)
	i := 0
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			for y := 0; y < WorldHeight; y++ {
				binary.LittleEndian.PutUint16(buf[i:], uint16(chunk.Blocks[x][z][y]))
				i += 2
			}
		}
	}
	return buf
}

// unpackBlocks восстанавливает колонку чанка из снимка
func unpackBlocks(cs chunkSnapshot) (*Chunk, error) {
	want := 2 * ChunkSize * ChunkSize * WorldHeight
	if len(cs.Blocks) != want {
		return nil, fmt.Errorf("повреждённый снимок колонки %v: %d байт вместо %d",
			cs.Coords, len(cs.Blocks), want)
	}

	chunk := NewChunk(cs.Coords)
	i := 0
	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			for y := 0; y < WorldHeight; y++ {
				chunk.Blocks[x][z][y] = block.BlockID(binary.LittleEndian.Uint16(cs.Blocks[i:]))
				i += 2
			}
		}
	}
	return chunk, nil
}
