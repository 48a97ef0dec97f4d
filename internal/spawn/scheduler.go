package spawn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/mmo-spawn/internal/eventbus"
	"github.com/annel0/mmo-spawn/internal/logging"
	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/entity"
)

// Entity — хэндл сущности, предоставляемый хостом
type Entity interface {
	GetID() uint64
	GetPosition() vec.Vec3
	SetPosition(pos vec.Vec3)
	SetMotionOverride(o entity.MotionOverride)
}

// Timers — хостовый one-shot таймер. Обратный вызов должен выполняться
// в той же кооперативной модели, что и входные точки планировщика
// (никогда не параллельно с ними).
type Timers interface {
	ScheduleOnce(delay time.Duration, task func())
}

// Config — параметры поиска, фиксируются при создании планировщика
// и разделяются всеми поисками.
type Config struct {
	BubbleHeight  int           // Минимальный пузырь воздуха над опорой
	RetryInterval time.Duration // Интервал между повторными проходами
	MinY          int           // Нижняя граница вертикального скана
	MaxY          int           // Верхняя граница вертикального скана
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		BubbleHeight:  2,
		RetryInterval: 500 * time.Millisecond,
		MinY:          0,
		MaxY:          255,
	}
}

// withDefaults заполняет нулевые поля значениями по умолчанию
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BubbleHeight <= 0 {
		c.BubbleHeight = def.BubbleHeight
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = def.RetryInterval
	}
	if c.MaxY <= c.MinY {
		c.MinY = def.MinY
		c.MaxY = def.MaxY
	}
	return c
}

// Stats — агрегированные метрики планировщика
type Stats struct {
	Found       uint64 // Успешно размещённые поиски
	Deferred    uint64 // Отложенные поиски (включая повторные)
	Abandoned   uint64 // Поиски, прерванные защитой диапазона
	RetryPasses uint64 // Выполненные повторные проходы
	Pending     int    // Сущностей в очереди ожидания
	TimerArmed  bool   // Взведён ли таймер повтора
}

// Состояния одного поиска
type searchState uint8

const (
	stateScanning  searchState = iota // Сканирование продолжается
	stateFound                        // Найдена безопасная позиция
	stateDeferred                     // Данные не загружены, отложить
	stateAbandoned                    // Проба вышла из допустимого диапазона
)

type searchResult struct {
	state searchState
	pos   vec.Vec3
}

// Scheduler владеет алгоритмом поиска безопасной позиции, очередью
// отложенных сущностей и единственным таймером повтора.
//
// Модель исполнения кооперативная: входные точки и обратный вызов
// таймера выполняются хостом строго по одному. Мьютекс защищает только
// чтение статистики с посторонних горутин (экспортер метрик) и не
// является механизмом синхронизации логики — её корректность держится
// на подмене очереди перед итерацией.
type Scheduler struct {
	cfg    Config
	prober *Prober
	timers Timers
	log    *logging.Logger

	mu      sync.Mutex
	pending []Entity            // Очередь в порядке постановки
	inQueue map[uint64]struct{} // Членство: сущность в очереди не более одного раза
	armed   bool                // Есть ли невыполненный таймер повтора
	stats   Stats

	subs []eventbus.Subscription
}

// NewScheduler создаёт планировщик поверх объёма и таймеров хоста.
// Нулевые поля конфигурации заменяются значениями по умолчанию.
func NewScheduler(volume Volume, timers Timers, cfg Config) *Scheduler {
	return &Scheduler{
		cfg:     cfg.withDefaults(),
		prober:  NewProber(volume),
		timers:  timers,
		log:     logging.NewConsoleLogger(),
		inQueue: make(map[uint64]struct{}),
	}
}

// SetLogger заменяет логгер планировщика
func (s *Scheduler) SetLogger(log *logging.Logger) {
	s.log = log
}

// Config возвращает действующие параметры поиска
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Activate подписывает входную точку планировщика на события создания
// и возрождения сущностей. Повторная активация заменяет прежние
// подписки, а не дублирует их.
func (s *Scheduler) Activate(bus eventbus.EventBus) error {
	s.Deactivate()

	filter := eventbus.Filter{
		Types: []string{entity.EventEntitySpawned, entity.EventEntityRespawned},
	}
	sub, err := bus.Subscribe(context.Background(), filter, s.handleEntityEvent)
	if err != nil {
		return fmt.Errorf("не удалось подписаться на события сущностей: %w", err)
	}

	s.subs = append(s.subs, sub)
	return nil
}

// Deactivate снимает подписки планировщика с шины
func (s *Scheduler) Deactivate() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Scheduler) handleEntityEvent(ctx context.Context, ev *eventbus.Envelope) {
	e, ok := ev.Data.(Entity)
	if !ok {
		s.log.Warn("Событие %s без хэндла сущности: %T", ev.EventType, ev.Data)
		return
	}
	s.PlaceEntity(e)
}

// PlaceEntity — входная точка: синхронно ищет безопасную позицию для
// сущности начиная с её текущей координаты и применяет результат.
func (s *Scheduler) PlaceEntity(e Entity) {
	s.apply(e, s.search(e.GetPosition()), false)
}

// search выполняет один проход конечного автомата сканирования.
// Число итераций ограничено вертикальным диапазоном: выход за границы
// или исчерпание шагов завершает поиск как stateAbandoned.
func (s *Scheduler) search(start vec.Vec3) searchResult {
	pos := start
	maxSteps := s.cfg.MaxY - s.cfg.MinY + 2

	for step := 0; step < maxSteps; step++ {
		if pos.Y < s.cfg.MinY || pos.Y > s.cfg.MaxY {
			return searchResult{state: stateAbandoned, pos: pos}
		}

		switch s.prober.CellAt(pos) {
		case CellUnknown:
			return searchResult{state: stateDeferred, pos: pos}

		case CellSolid:
			// Выбираемся из грунта вверх
			pos = pos.Up(1)

		default: // CellEmpty
			switch s.prober.CellAt(pos.Down(1)) {
			case CellEmpty:
				// Свободное падение сквозь воздух к земле
				pos = pos.Down(2)
			case CellUnknown:
				return searchResult{state: stateDeferred, pos: pos}
			default:
				// Под ногами опора: хватает ли воздуха над ней?
				if s.prober.HasBubble(pos, s.cfg.BubbleHeight) {
					return searchResult{state: stateFound, pos: pos}
				}
				// Ищем больше свободного места выше этой опоры
				pos = pos.Up(2)
			}
		}
	}

	return searchResult{state: stateAbandoned, pos: pos}
}

// apply применяет результат поиска к сущности
func (s *Scheduler) apply(e Entity, res searchResult, duringRetry bool) {
	switch res.state {
	case stateFound:
		// Единственный мутирующий эффект успешного поиска: телепорт
		// в найденную точку и возврат нормальной физики.
		e.SetPosition(res.pos)
		e.SetMotionOverride(entity.NormalMotion())

		s.mu.Lock()
		s.stats.Found++
		s.mu.Unlock()

	case stateDeferred:
		// Прогресс скана сохраняется: сущность замирает в точке, где
		// встретились незагруженные данные, и повтор начнётся оттуда.
		e.SetPosition(res.pos)
		e.SetMotionOverride(entity.LockedMotion())

		s.mu.Lock()
		s.stats.Deferred++
		s.enqueueLocked(e)
		if !duringRetry {
			s.armTimerLocked()
		}
		s.mu.Unlock()

	default: // stateAbandoned
		s.mu.Lock()
		s.stats.Abandoned++
		s.mu.Unlock()

		// Защита от разгона на испорченном объёме: поиск прекращается,
		// сущность остаётся как есть. Событие видимое, не тихое.
		s.log.Warn("Поиск позиции для сущности %d прерван: проба вышла из диапазона [%d..%d] в %v",
			e.GetID(), s.cfg.MinY, s.cfg.MaxY, res.pos)
	}
}

// enqueueLocked ставит сущность в очередь, сохраняя порядок постановки.
// Сущность состоит в очереди не более одного раза.
func (s *Scheduler) enqueueLocked(e Entity) {
	if _, exists := s.inQueue[e.GetID()]; exists {
		return
	}
	s.inQueue[e.GetID()] = struct{}{}
	s.pending = append(s.pending, e)
}

// armTimerLocked взводит таймер повтора, если он ещё не взведён.
// Инвариант: в любой момент существует не более одного таймера.
func (s *Scheduler) armTimerLocked() {
	if s.armed {
		return
	}
	s.armed = true
	s.timers.ScheduleOnce(s.cfg.RetryInterval, s.retryPass)
}

// retryPass — обратный вызов таймера: повторяет поиск для всех
// ожидающих сущностей. Очередь подменяется пустой до итерации, поэтому
// сущность, отложившаяся во время прохода, попадает в новую очередь и
// не посещается в том же проходе повторно.
func (s *Scheduler) retryPass() {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.inQueue = make(map[uint64]struct{})
	s.stats.RetryPasses++
	s.mu.Unlock()

	for _, e := range batch {
		s.apply(e, s.search(e.GetPosition()), true)
	}

	// Таймер, вызвавший этот проход, уже израсходован: решение о новом
	// таймере принимается заново по состоянию свежей очереди.
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.armed = true
		s.timers.ScheduleOnce(s.cfg.RetryInterval, s.retryPass)
	} else {
		s.armed = false
	}
	s.mu.Unlock()
}

// Stats возвращает снимок метрик планировщика
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats
	st.Pending = len(s.pending)
	st.TimerArmed = s.armed
	return st
}
