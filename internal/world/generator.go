package world

import (
	"github.com/aquilax/go-perlin"

	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
)

// Константы рельефа
const (
	BaseSurfaceY  = 64 // Средний уровень поверхности
	SurfaceSwing  = 24 // Амплитуда колебаний высоты
	DirtDepth     = 3  // Толщина слоя земли под травой
	SeaLevel      = 56 // Ниже этого уровня впадины заливаются водой
	BeachBand     = 2  // Полоса песка вокруг уровня воды
	noiseAlpha    = 2.0
	noiseBeta     = 2.0
	noiseOctaves  = 3
	noiseScaleDiv = 96.0 // Масштаб шума: больше — более пологий рельеф
)

// WorldGenerator генерирует ландшафт мира: высотная карта на шуме
// Перлина, каменное ядро, земля с травяной поверхностью, вода во
// впадинах. Генерация детерминирована по сиду.
type WorldGenerator struct {
	Seed  int64          // Сид для генерации шума
	noise *perlin.Perlin // Генератор шума Перлина
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:  seed,
		noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// SurfaceHeight возвращает высоту поверхности в мировой точке (x, z)
func (wg *WorldGenerator) SurfaceHeight(x, z int) int {
	// Noise2D возвращает значение примерно в [-1, 1]
	n := wg.noise.Noise2D(float64(x)/noiseScaleDiv, float64(z)/noiseScaleDiv)
	h := BaseSurfaceY + int(n*SurfaceSwing)

	if h < 1 {
		h = 1
	}
	if h >= WorldHeight-1 {
		h = WorldHeight - 2
	}
	return h
}

// GenerateChunk генерирует колонку чанка по её координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec2) *Chunk {
	chunk := NewChunk(coords)

	globalStartX := coords.X << 4 // chunkX * 16
	globalStartZ := coords.Y << 4 // chunkZ * 16

	for x := 0; x < ChunkSize; x++ {
		for z := 0; z < ChunkSize; z++ {
			h := wg.SurfaceHeight(globalStartX+x, globalStartZ+z)

			col := &chunk.Blocks[x][z]
			for y := 0; y <= h; y++ {
				switch {
				case y == h:
					if h <= SeaLevel+BeachBand {
						col[y] = block.SandBlockID
					} else {
						col[y] = block.GrassBlockID
					}
				case y >= h-DirtDepth:
					col[y] = block.DirtBlockID
				default:
					col[y] = block.StoneBlockID
				}
			}

			// Впадины ниже уровня моря заливаем водой
			for y := h + 1; y <= SeaLevel; y++ {
				col[y] = block.WaterBlockID
			}
		}
	}

	return chunk
}
