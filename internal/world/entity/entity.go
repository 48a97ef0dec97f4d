package entity

import (
	"sync"

	"github.com/annel0/mmo-spawn/internal/vec"
)

// EntityType представляет тип сущности
type EntityType uint16

const (
	EntityTypePlayer EntityType = iota
	EntityTypeNPC
	EntityTypeMonster
	EntityTypeItem
	EntityTypeAnimal
)

// Типы событий жизненного цикла сущностей, публикуемые менеджером.
// Поле Data конверта содержит *Entity.
const (
	EventEntitySpawned   = "EntitySpawned"
	EventEntityRespawned = "EntityRespawned"
)

// MotionOverride задаёт переопределение физики сущности.
// Единичные множители и включённое приседание — нормальное состояние.
type MotionOverride struct {
	Speed       float64 // Множитель скорости перемещения
	Jump        float64 // Множитель высоты прыжка
	Gravity     float64 // Множитель гравитации (0 — падение отключено)
	Sneak       bool    // Разрешено ли приседание
	SneakGlitch bool    // Старый глитч-режим приседания
}

// NormalMotion возвращает переопределение "физика по умолчанию"
func NormalMotion() MotionOverride {
	return MotionOverride{Speed: 1, Jump: 1, Gravity: 1, Sneak: true}
}

// LockedMotion возвращает полную блокировку движения: сущность
// обездвижена и не падает, пока для неё ищется безопасная позиция.
func LockedMotion() MotionOverride {
	return MotionOverride{}
}

// Entity представляет базовую сущность в мире
type Entity struct {
	ID      uint64                 // Уникальный идентификатор сущности
	Type    EntityType             // Тип сущности
	Payload map[string]interface{} // Дополнительные данные сущности
	Active  bool                   // Активна ли сущность

	mu       sync.RWMutex
	position vec.Vec3       // Текущая позиция в мире (в координатах блоков)
	motion   MotionOverride // Текущее переопределение физики
}

// NewEntity создаёт новую сущность
func NewEntity(id uint64, entityType EntityType, position vec.Vec3) *Entity {
	return &Entity{
		ID:       id,
		Type:     entityType,
		Payload:  make(map[string]interface{}),
		Active:   true,
		position: position,
		motion:   NormalMotion(),
	}
}

// GetID возвращает уникальный ID сущности
func (e *Entity) GetID() uint64 {
	return e.ID
}

// GetPosition возвращает текущую позицию
func (e *Entity) GetPosition() vec.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// SetPosition устанавливает новую позицию (телепорт)
func (e *Entity) SetPosition(pos vec.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = pos
}

// SetMotionOverride устанавливает переопределение физики
func (e *Entity) SetMotionOverride(o MotionOverride) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.motion = o
}

// GetMotionOverride возвращает текущее переопределение физики
func (e *Entity) GetMotionOverride() MotionOverride {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.motion
}
