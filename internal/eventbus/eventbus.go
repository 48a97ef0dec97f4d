package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID        string            // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя компонента-источника.
	EventType string            // Тип события (EntitySpawned…).
	Priority  int               // 0=Low … 9=Critical.
	Data      interface{}       // Полезная нагрузка (in-process хэндлы).
	Metadata  map[string]string // Произвольные метаданные.
}

// NewEnvelope создаёт конверт с заполненными ID и временем
func NewEnvelope(source, eventType string, data interface{}) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Data:      data,
	}
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто — все типы.
	Sources []string // Если пусто — все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
}

// EventBus определяет абстракцию шины событий.
// Реализация ниже синхронная: Publish вызывает обработчики на горутине
// публикующего, строго по одному — кооперативная однопоточная модель
// хоста, в которой обработчики никогда не перекрываются.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
}

//================ Synchronous in-memory implementation =================//

type memoryBus struct {
	mu          sync.Mutex
	subscribers []*subscriber // Порядок подписки сохраняется для детерминизма
	nextID      int
	stats       Stats
}

type subscriber struct {
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
}

// NewMemoryBus создаёт синхронную in-memory шину
func NewMemoryBus() EventBus {
	return &memoryBus{}
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.Lock()
	mb.stats.Published++
	subs := make([]*subscriber, len(mb.subscribers))
	copy(subs, mb.subscribers)
	mb.mu.Unlock()

	for _, sub := range subs {
		if !matchFilter(ev, sub.filter) {
			continue
		}
		if sub.ctx.Err() != nil {
			continue
		}
		sub.handler(sub.ctx, ev)

		mb.mu.Lock()
		mb.stats.Consumed++
		mb.mu.Unlock()
	}
	return ctx.Err()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	sub := &subscriber{
		id:      mb.nextID,
		filter:  f,
		handler: h,
		ctx:     ctx,
	}
	mb.nextID++
	mb.subscribers = append(mb.subscribers, sub)

	return &memSub{bus: mb, id: sub.id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.stats
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	for i, sub := range s.bus.subscribers {
		if sub.id == s.id {
			s.bus.subscribers = append(s.bus.subscribers[:i], s.bus.subscribers[i+1:]...)
			return
		}
	}
}
