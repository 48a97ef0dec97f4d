package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/mmo-spawn/internal/config"
	"github.com/annel0/mmo-spawn/internal/eventbus"
	"github.com/annel0/mmo-spawn/internal/gameloop"
	"github.com/annel0/mmo-spawn/internal/logging"
	"github.com/annel0/mmo-spawn/internal/spawn"
	"github.com/annel0/mmo-spawn/internal/vec"
	"github.com/annel0/mmo-spawn/internal/world"
	_ "github.com/annel0/mmo-spawn/internal/world/block/implementations"
	"github.com/annel0/mmo-spawn/internal/world/entity"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML-конфигурации (или ENV SPAWN_CONFIG)")
	entityCount := flag.Int("entities", 16, "Число симулируемых сущностей")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("spawn-sim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🌍 Запуск симулятора безопасного размещения сущностей...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	spawnCfg := spawn.Config{
		BubbleHeight:  cfg.Spawn.GetBubbleHeight(),
		RetryInterval: cfg.Spawn.GetRetryInterval(),
		MinY:          cfg.Spawn.GetMinY(),
		MaxY:          cfg.Spawn.GetMaxY(),
	}
	logging.Info("📡 Параметры поиска: пузырь=%d, повтор=%v, диапазон=[%d..%d]",
		spawnCfg.BubbleHeight, spawnCfg.RetryInterval, spawnCfg.MinY, spawnCfg.MaxY)

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===

	// Мир с процедурным ландшафтом. Чанки начинаются незагруженными,
	// чтобы симулятор проходил путь отсрочки и повторного поиска.
	seed := cfg.World.GetSeed()
	wm := world.NewWorldManager(seed)
	logging.Info("🗺️  Мир создан, сид=%d", seed)

	// Кооперативный исполнитель: вся логика размещения выполняется на
	// одной горутине, таймеры повтора попадают в неё же
	loop := gameloop.NewLoop(256)
	loop.Run()

	// Шина событий и менеджер сущностей
	bus := eventbus.NewMemoryBus()
	manager := entity.NewManager(bus)

	// Планировщик размещения
	sched := spawn.NewScheduler(wm, loop, spawnCfg)
	sched.SetLogger(logging.GetComponentLogger("spawn"))
	if err := sched.Activate(bus); err != nil {
		logging.Error("❌ Ошибка активации планировщика: %v", err)
		log.Fatalf("❌ Ошибка активации планировщика: %v", err)
	}
	defer sched.Deactivate()

	// Prometheus-метрики
	exporter := spawn.NewMetricsExporter(sched)
	exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))

	logging.Info("✅ Все компоненты готовы, начинаем симуляцию")

	// === СИМУЛЯЦИЯ ===

	// Сущности появляются высоко над незагруженными чанками
	rng := rand.New(rand.NewSource(seed))
	if err := loop.Post(func() {
		for i := 0; i < *entityCount; i++ {
			pos := vec.Vec3{
				X: rng.Intn(64) - 32,
				Y: world.WorldHeight - 8,
				Z: rng.Intn(64) - 32,
			}
			e := manager.SpawnEntity(entity.EntityTypePlayer, pos)
			logging.Debug("Сущность %d появилась в %v", e.GetID(), pos)
		}
	}); err != nil {
		log.Fatalf("❌ Цикл не принял задачу: %v", err)
	}

	// Поэтапная догрузка мира: каждые полсекунды поднимаем колонку
	// чанков, давая очереди повторов постепенно опустеть
	var loadStaged func(ring int)
	loadStaged = func(ring int) {
		if ring > 3 {
			return
		}
		for cx := -ring; cx <= ring; cx++ {
			for cz := -ring; cz <= ring; cz++ {
				wm.LoadChunk(vec.Vec2{X: cx, Y: cz})
			}
		}
		logging.Info("📦 Загружено колонок: %d", wm.LoadedChunks())
		loop.ScheduleOnce(500*time.Millisecond, func() { loadStaged(ring + 1) })
	}
	loop.ScheduleOnce(time.Second, func() { loadStaged(0) })

	// Периодический отчёт о ходе размещения
	var report func()
	report = func() {
		st := sched.Stats()
		logging.Info("📊 Размещено=%d, отложено=%d, прервано=%d, в очереди=%d, проходов=%d",
			st.Found, st.Deferred, st.Abandoned, st.Pending, st.RetryPasses)
		loop.ScheduleOnce(2*time.Second, report)
	}
	loop.ScheduleOnce(2*time.Second, report)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	loop.Stop()
	exporter.Stop()

	if path := cfg.World.SnapshotPath; path != "" {
		if err := wm.SaveSnapshot(path); err != nil {
			logging.Error("❌ Ошибка сохранения снапшота мира: %v", err)
		} else {
			logging.Info("💾 Снапшот мира сохранён в %s", path)
		}
	}

	st := sched.Stats()
	logging.Info("🏁 Итог: размещено=%d, прервано=%d, осталось в очереди=%d",
		st.Found, st.Abandoned, st.Pending)
	logging.Info("✅ Симулятор остановлен")
}
