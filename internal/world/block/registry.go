package block

var registry = make(map[BlockID]BlockBehavior)

// Register добавляет поведение блока в регистр
func Register(id BlockID, behavior BlockBehavior) {
	registry[id] = behavior
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (BlockBehavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// IsPassable возвращает true, если блок проходим (сущность может занимать
// эту клетку). Незарегистрированные блоки считаются непроходимыми.
func IsPassable(id BlockID) bool {
	behavior, exists := registry[id]
	if !exists {
		return false
	}
	return behavior.Passable()
}

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID   BlockID = iota // 0
	StoneBlockID                // 1
	GrassBlockID                // 2
	WaterBlockID                // 3
	SandBlockID                 // 4
	DirtBlockID                 // 5

	// UnloadedBlockID — сентинел "данные ещё не загружены".
	// Возвращается вместо реального блока, когда колонка чанка
	// отсутствует в памяти. Никогда не регистрируется в регистре.
	UnloadedBlockID BlockID = 0xFFFF
)
