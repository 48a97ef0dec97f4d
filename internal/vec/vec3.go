package vec

// Vec3 представляет трехмерные координаты блока.
// Ось Y направлена вверх; X и Z — горизонтальная плоскость.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Up возвращает координату на n блоков выше
func (v Vec3) Up(n int) Vec3 {
	return Vec3{X: v.X, Y: v.Y + n, Z: v.Z}
}

// Down возвращает координату на n блоков ниже
func (v Vec3) Down(n int) Vec3 {
	return Vec3{X: v.X, Y: v.Y - n, Z: v.Z}
}

// ChunkColumn возвращает координаты колонки чанка (X, Z), содержащей блок
func (v Vec3) ChunkColumn() Vec2 {
	return Vec2{X: v.X >> 4, Y: v.Z >> 4} // Деление на 16 с округлением вниз
}

// LocalInChunk возвращает локальные координаты блока внутри колонки чанка.
// Вертикальная координата не нормализуется: чанк хранит колонку целиком.
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y, Z: v.Z & 0xF} // Модуль 16
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}
