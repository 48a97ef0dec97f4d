package block

// BlockBehavior определяет поведение блока
type BlockBehavior interface {
	ID() BlockID
	Name() string

	// Passable возвращает true, если сущность может находиться внутри блока.
	// Вода намеренно непроходима: размещать сущность под водой нельзя.
	Passable() bool
}
