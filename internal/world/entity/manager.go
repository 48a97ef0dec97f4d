package entity

import (
	"context"
	"sync"

	"github.com/annel0/mmo-spawn/internal/eventbus"
	"github.com/annel0/mmo-spawn/internal/vec"
)

// Manager управляет жизненным циклом сущностей и публикует события
// создания/возрождения на шину. Обработчики шины синхронные, поэтому
// к возврату из Spawn/Respawn все подписчики уже отработали.
type Manager struct {
	mu       sync.RWMutex
	entities map[uint64]*Entity
	nextID   uint64
	bus      eventbus.EventBus
}

// NewManager создаёт менеджер сущностей поверх шины событий
func NewManager(bus eventbus.EventBus) *Manager {
	return &Manager{
		entities: make(map[uint64]*Entity),
		nextID:   1000, // Начинаем с 1000, чтобы избежать конфликтов с малыми ID
		bus:      bus,
	}
}

// SpawnEntity создаёт сущность и публикует EventEntitySpawned
func (m *Manager) SpawnEntity(entityType EntityType, position vec.Vec3) *Entity {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	e := NewEntity(id, entityType, position)
	m.entities[id] = e
	m.mu.Unlock()

	m.publish(EventEntitySpawned, e)
	return e
}

// RespawnEntity перемещает сущность в точку возрождения и публикует
// EventEntityRespawned
func (m *Manager) RespawnEntity(e *Entity, position vec.Vec3) {
	e.SetPosition(position)
	e.SetMotionOverride(NormalMotion())

	m.publish(EventEntityRespawned, e)
}

// GetEntity возвращает сущность по ID
func (m *Manager) GetEntity(id uint64) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.entities[id]
	return e, exists
}

// Count возвращает число зарегистрированных сущностей
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entities)
}

func (m *Manager) publish(eventType string, e *Entity) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(context.Background(), eventbus.NewEnvelope("entity", eventType, e))
}
