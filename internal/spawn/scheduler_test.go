package spawn

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/mmo-spawn/internal/eventbus"
	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world/block"
	_ "github.com/annel0/mmo-spawn/internal/world/block/implementations"
	"github.com/annel0/mmo-spawn/internal/world/entity"
)

//================ Тестовые фейки =================//

// fakeVolume — объём на карте клеток с блоком по умолчанию
type fakeVolume struct {
	cells map[vec.Vec3]block.BlockID
	def   block.BlockID
	err   error
}

func newFakeVolume(def block.BlockID) *fakeVolume {
	return &fakeVolume{cells: make(map[vec.Vec3]block.BlockID), def: def}
}

func (v *fakeVolume) BlockAt(pos vec.Vec3) (block.BlockID, error) {
	if v.err != nil {
		return 0, v.err
	}
	if id, ok := v.cells[pos]; ok {
		return id, nil
	}
	return v.def, nil
}

func (v *fakeVolume) set(x, y, z int, id block.BlockID) {
	v.cells[vec.Vec3{X: x, Y: y, Z: z}] = id
}

func (v *fakeVolume) fillColumn(x, z, fromY, toY int, id block.BlockID) {
	for y := fromY; y <= toY; y++ {
		v.set(x, y, z, id)
	}
}

// fakeTimers записывает запланированные задачи; тест запускает их вручную
type fakeTimers struct {
	delays []time.Duration
	tasks  []func()
	fired  int
}

func (ft *fakeTimers) ScheduleOnce(delay time.Duration, task func()) {
	ft.delays = append(ft.delays, delay)
	ft.tasks = append(ft.tasks, task)
}

// fireNext выполняет следующий невыполненный таймер
func (ft *fakeTimers) fireNext(t *testing.T) {
	t.Helper()
	if ft.fired >= len(ft.tasks) {
		t.Fatal("Нет запланированных таймеров для запуска")
	}
	task := ft.tasks[ft.fired]
	ft.fired++
	task()
}

// fakeEntity фиксирует телепорты и смены физики
type fakeEntity struct {
	id     uint64
	pos    vec.Vec3
	motion entity.MotionOverride
}

func newFakeEntity(id uint64, pos vec.Vec3) *fakeEntity {
	return &fakeEntity{id: id, pos: pos, motion: entity.NormalMotion()}
}

func (e *fakeEntity) GetID() uint64         { return e.id }
func (e *fakeEntity) GetPosition() vec.Vec3 { return e.pos }

func (e *fakeEntity) SetPosition(pos vec.Vec3) { e.pos = pos }

func (e *fakeEntity) SetMotionOverride(o entity.MotionOverride) { e.motion = o }

func newTestScheduler(v Volume, cfg Config) (*Scheduler, *fakeTimers) {
	ft := &fakeTimers{}
	return NewScheduler(v, ft, cfg), ft
}

//================ Поиск позиции =================//

func TestSearchClimbsOutOfGround(t *testing.T) {
	// Колонка: y0 камень, y1-y2 воздух, y3 камень, выше воздух.
	// Ниша y1-y2 слишком тесная для пузыря высоты 2, первая подходящая
	// опора — крыша ниши.
	v := newFakeVolume(block.AirBlockID)
	v.set(0, 0, 0, block.StoneBlockID)
	v.set(0, 3, 0, block.StoneBlockID)

	s, ft := newTestScheduler(v, Config{})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 0, Z: 0})
	s.PlaceEntity(e)

	want := vec.Vec3{X: 0, Y: 4, Z: 0}
	if !e.pos.Equals(want) {
		t.Errorf("Позиция: ожидалось %v, получено %v", want, e.pos)
	}
	if e.motion != entity.NormalMotion() {
		t.Errorf("После успеха физика должна быть нормальной, получено %+v", e.motion)
	}

	st := s.Stats()
	if st.Found != 1 || st.Pending != 0 || st.TimerArmed {
		t.Errorf("Статистика после успеха: %+v", st)
	}
	if len(ft.tasks) != 0 {
		t.Errorf("Таймер не должен взводиться, запланировано %d", len(ft.tasks))
	}
}

func TestSearchDescendsToGround(t *testing.T) {
	// Единственная опора на y0, сущность появляется высоко в воздухе
	v := newFakeVolume(block.AirBlockID)
	v.set(0, 0, 0, block.StoneBlockID)

	s, _ := newTestScheduler(v, Config{})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 10, Z: 0})
	s.PlaceEntity(e)

	want := vec.Vec3{X: 0, Y: 1, Z: 0}
	if !e.pos.Equals(want) {
		t.Errorf("Спуск к земле: ожидалось %v, получено %v", want, e.pos)
	}
	if s.Stats().Found != 1 {
		t.Errorf("Found: ожидалось 1, получено %d", s.Stats().Found)
	}
}

func TestSearchDeferredOnUnknown(t *testing.T) {
	// Камень y0-y4 в незагруженном остальном мире: проба выбирается из
	// грунта и упирается в неизвестную клетку на y5
	v := newFakeVolume(block.UnloadedBlockID)
	v.fillColumn(0, 0, 0, 4, block.StoneBlockID)

	s, ft := newTestScheduler(v, Config{})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 2, Z: 0})
	s.PlaceEntity(e)

	// Сущность замирает в точке пробы, сохраняя прогресс скана
	want := vec.Vec3{X: 0, Y: 5, Z: 0}
	if !e.pos.Equals(want) {
		t.Errorf("Точка заморозки: ожидалось %v, получено %v", want, e.pos)
	}
	if e.motion != entity.LockedMotion() {
		t.Errorf("При отсрочке физика должна быть заблокирована, получено %+v", e.motion)
	}

	st := s.Stats()
	if st.Deferred != 1 || st.Pending != 1 || !st.TimerArmed {
		t.Errorf("Статистика после отсрочки: %+v", st)
	}
	if len(ft.tasks) != 1 {
		t.Fatalf("Ожидался ровно один таймер, запланировано %d", len(ft.tasks))
	}
	if ft.delays[0] != 500*time.Millisecond {
		t.Errorf("Интервал по умолчанию: ожидалось 500ms, получено %v", ft.delays[0])
	}
}

func TestVolumeErrorDefers(t *testing.T) {
	v := newFakeVolume(block.AirBlockID)
	v.err = errTest

	s, _ := newTestScheduler(v, Config{})
	start := vec.Vec3{X: 3, Y: 7, Z: 3}
	e := newFakeEntity(1, start)
	s.PlaceEntity(e)

	if !e.pos.Equals(start) {
		t.Errorf("При ошибке на старте проба не движется: ожидалось %v, получено %v", start, e.pos)
	}
	if e.motion != entity.LockedMotion() {
		t.Error("Ошибка объёма должна приводить к отсрочке с блокировкой движения")
	}
	if s.Stats().Pending != 1 {
		t.Errorf("Pending: ожидалось 1, получено %d", s.Stats().Pending)
	}
}

func TestAbandonAllSolid(t *testing.T) {
	// Сплошной камень до верхней границы: проба выходит за MaxY
	v := newFakeVolume(block.StoneBlockID)

	s, ft := newTestScheduler(v, Config{MinY: 0, MaxY: 8})
	start := vec.Vec3{X: 0, Y: 0, Z: 0}
	e := newFakeEntity(1, start)
	s.PlaceEntity(e)

	if !e.pos.Equals(start) {
		t.Errorf("При прерывании сущность не трогается: ожидалось %v, получено %v", start, e.pos)
	}
	if e.motion != entity.NormalMotion() {
		t.Errorf("При прерывании физика не меняется, получено %+v", e.motion)
	}

	st := s.Stats()
	if st.Abandoned != 1 || st.Pending != 0 || st.TimerArmed {
		t.Errorf("Статистика после прерывания: %+v", st)
	}
	if len(ft.tasks) != 0 {
		t.Error("Прерванный поиск не ставится в очередь повторов")
	}
}

func TestAbandonBelowRange(t *testing.T) {
	// Пустой мир без опоры: проба проваливается ниже MinY
	v := newFakeVolume(block.AirBlockID)

	s, _ := newTestScheduler(v, Config{MinY: 0, MaxY: 32})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 5, Z: 0})
	s.PlaceEntity(e)

	if s.Stats().Abandoned != 1 {
		t.Errorf("Abandoned: ожидалось 1, получено %d", s.Stats().Abandoned)
	}
}

func TestBubbleHeightEffective(t *testing.T) {
	// Карман: опора y0, воздух y1-y3, камень сверху и вокруг.
	// Пузыря высоты 2 хватает, высоты 3 — нет.
	build := func() *fakeVolume {
		v := newFakeVolume(block.StoneBlockID)
		v.fillColumn(0, 0, 1, 3, block.AirBlockID)
		return v
	}

	s2, _ := newTestScheduler(build(), Config{BubbleHeight: 2, MinY: 0, MaxY: 10})
	e2 := newFakeEntity(1, vec.Vec3{X: 0, Y: 1, Z: 0})
	s2.PlaceEntity(e2)

	if !e2.pos.Equals(vec.Vec3{X: 0, Y: 1, Z: 0}) || s2.Stats().Found != 1 {
		t.Errorf("BubbleHeight=2: ожидалось размещение на (0,1,0), позиция %v, статистика %+v",
			e2.pos, s2.Stats())
	}

	// С пузырём 3 в кармане места нет, а наружу не выбраться:
	// ограничение шагов завершает поиск прерыванием, не зависанием
	s3, _ := newTestScheduler(build(), Config{BubbleHeight: 3, MinY: 0, MaxY: 10})
	e3 := newFakeEntity(2, vec.Vec3{X: 0, Y: 1, Z: 0})
	s3.PlaceEntity(e3)

	if s3.Stats().Found != 0 || s3.Stats().Abandoned != 1 {
		t.Errorf("BubbleHeight=3: ожидалось прерывание, статистика %+v", s3.Stats())
	}
}

//================ Очередь и таймер =================//

func TestRetryResolvesAfterLoad(t *testing.T) {
	v := newFakeVolume(block.UnloadedBlockID)
	v.fillColumn(0, 0, 0, 4, block.StoneBlockID)

	s, ft := newTestScheduler(v, Config{})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 2, Z: 0})
	s.PlaceEntity(e)

	// "Догрузка" мира: всё неизвестное становится воздухом
	v.def = block.AirBlockID
	ft.fireNext(t)

	want := vec.Vec3{X: 0, Y: 5, Z: 0}
	if !e.pos.Equals(want) {
		t.Errorf("После догрузки: ожидалось %v, получено %v", want, e.pos)
	}
	if e.motion != entity.NormalMotion() {
		t.Error("После размещения физика должна вернуться к нормальной")
	}

	st := s.Stats()
	if st.Found != 1 || st.Pending != 0 || st.TimerArmed || st.RetryPasses != 1 {
		t.Errorf("Статистика после повтора: %+v", st)
	}
	// Очередь опустела: новый таймер не взводится
	if len(ft.tasks) != 1 {
		t.Errorf("Ожидался один таймер за весь сценарий, запланировано %d", len(ft.tasks))
	}
}

func TestRetryRedefersWithSingleTimer(t *testing.T) {
	v := newFakeVolume(block.UnloadedBlockID)

	s, ft := newTestScheduler(v, Config{})
	e1 := newFakeEntity(1, vec.Vec3{X: 0, Y: 5, Z: 0})
	e2 := newFakeEntity(2, vec.Vec3{X: 9, Y: 5, Z: 9})
	s.PlaceEntity(e1)
	s.PlaceEntity(e2)

	if len(ft.tasks) != 1 {
		t.Fatalf("Две отсрочки делят один таймер, запланировано %d", len(ft.tasks))
	}

	// Мир всё ещё не загружен: проход повторно откладывает обе сущности
	ft.fireNext(t)

	st := s.Stats()
	if st.Pending != 2 || !st.TimerArmed {
		t.Errorf("После холостого прохода: %+v", st)
	}
	if st.Deferred != 4 {
		t.Errorf("Deferred считает каждую отсрочку: ожидалось 4, получено %d", st.Deferred)
	}
	// Ровно один новый таймер на весь проход
	if len(ft.tasks) != 2 {
		t.Errorf("Ожидалось 2 таймера всего, запланировано %d", len(ft.tasks))
	}

	// Порядок постановки сохраняется между проходами
	s.mu.Lock()
	if s.pending[0].GetID() != 1 || s.pending[1].GetID() != 2 {
		t.Errorf("Порядок очереди нарушен: [%d, %d]", s.pending[0].GetID(), s.pending[1].GetID())
	}
	s.mu.Unlock()
}

func TestQueueMembershipUnique(t *testing.T) {
	v := newFakeVolume(block.UnloadedBlockID)

	s, ft := newTestScheduler(v, Config{})
	e := newFakeEntity(1, vec.Vec3{X: 0, Y: 5, Z: 0})

	// Повторное событие для той же сущности до срабатывания таймера
	s.PlaceEntity(e)
	s.PlaceEntity(e)

	st := s.Stats()
	if st.Pending != 1 {
		t.Errorf("Сущность в очереди не более одного раза: Pending=%d", st.Pending)
	}
	if len(ft.tasks) != 1 {
		t.Errorf("Второй таймер не взводится: запланировано %d", len(ft.tasks))
	}
}

func TestConfigRetryIntervalEffective(t *testing.T) {
	v := newFakeVolume(block.UnloadedBlockID)

	s, ft := newTestScheduler(v, Config{RetryInterval: 250 * time.Millisecond})
	s.PlaceEntity(newFakeEntity(1, vec.Vec3{X: 0, Y: 5, Z: 0}))

	if ft.delays[0] != 250*time.Millisecond {
		t.Errorf("Интервал из конфигурации: ожидалось 250ms, получено %v", ft.delays[0])
	}
}

//================ Активация на шине =================//

func TestActivateIdempotent(t *testing.T) {
	v := newFakeVolume(block.AirBlockID)
	v.set(5, 0, 5, block.StoneBlockID)

	s, _ := newTestScheduler(v, Config{})
	bus := eventbus.NewMemoryBus()

	if err := s.Activate(bus); err != nil {
		t.Fatalf("Ошибка активации: %v", err)
	}
	// Повторная активация заменяет подписку, а не добавляет вторую
	if err := s.Activate(bus); err != nil {
		t.Fatalf("Ошибка повторной активации: %v", err)
	}

	e := newFakeEntity(1, vec.Vec3{X: 5, Y: 3, Z: 5})
	ev := eventbus.NewEnvelope("test", entity.EventEntitySpawned, e)
	if err := bus.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}

	if got := s.Stats().Found; got != 1 {
		t.Errorf("Обработчик должен сработать ровно один раз: Found=%d", got)
	}
	if !e.pos.Equals(vec.Vec3{X: 5, Y: 1, Z: 5}) {
		t.Errorf("Позиция после события: %v", e.pos)
	}

	// После деактивации события игнорируются
	s.Deactivate()
	ev2 := eventbus.NewEnvelope("test", entity.EventEntityRespawned, newFakeEntity(2, vec.Vec3{X: 5, Y: 3, Z: 5}))
	_ = bus.Publish(context.Background(), ev2)

	if got := s.Stats().Found; got != 1 {
		t.Errorf("После деактивации счётчик не растёт: Found=%d", got)
	}
}

func TestActivateIgnoresForeignPayload(t *testing.T) {
	v := newFakeVolume(block.AirBlockID)
	s, _ := newTestScheduler(v, Config{})

	bus := eventbus.NewMemoryBus()
	if err := s.Activate(bus); err != nil {
		t.Fatalf("Ошибка активации: %v", err)
	}

	ev := eventbus.NewEnvelope("test", entity.EventEntitySpawned, "не сущность")
	_ = bus.Publish(context.Background(), ev)

	st := s.Stats()
	if st.Found != 0 || st.Deferred != 0 || st.Abandoned != 0 {
		t.Errorf("Чужая нагрузка не должна запускать поиск: %+v", st)
	}
}
