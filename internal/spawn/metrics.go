package spawn

import (
	"net/http"
	"time"

	"github.com/annel0/mmo-spawn/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider — источник метрик размещения. Экспортер не делает
// предположений о конкретной реализации планировщика и опирается
// исключительно на этот интерфейс.
type StatsProvider interface {
	Stats() Stats
}

// MetricsExporter управляет HTTP-эндпоинтом Prometheus и периодически обновляет Gauge/Counter.
type MetricsExporter struct {
	provider StatsProvider
	quit     chan struct{}
	done     chan struct{}
	// Prometheus metrics
	found       prometheus.Counter
	deferred    prometheus.Counter
	abandoned   prometheus.Counter
	retryPasses prometheus.Counter
	pending     prometheus.Gauge
	timerArmed  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер, но не запускает HTTP-сервер.
func NewMetricsExporter(provider StatsProvider) *MetricsExporter {
	me := &MetricsExporter{
		provider: provider,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		found: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spawn",
			Name:      "placements_found_total",
			Help:      "Общее число успешно размещённых сущностей.",
		}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spawn",
			Name:      "placements_deferred_total",
			Help:      "Общее число отложенных поисков, включая повторные.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spawn",
			Name:      "placements_abandoned_total",
			Help:      "Поисков, прерванных защитой вертикального диапазона.",
		}),
		retryPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spawn",
			Name:      "retry_passes_total",
			Help:      "Выполненных проходов по очереди ожидания.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spawn",
			Name:      "pending_entities",
			Help:      "Сущностей, ожидающих повторного поиска.",
		}),
		timerArmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spawn",
			Name:      "retry_timer_armed",
			Help:      "1, если таймер повтора взведён, иначе 0.",
		}),
	}

	// Регистрируем метрики в глобальном регистре Prometheus.
	prometheus.MustRegister(me.found, me.deferred, me.abandoned, me.retryPasses, me.pending, me.timerArmed)
	return me
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (m *MetricsExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	go m.loop()
}

// Stop останавливает обновление метрик. HTTP-сервер при этом не завершается
// (для упрощения – можно запустить на отдельном порте и убить процесс целиком).
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	defer close(m.done)

	// Для коррекции Counter нужно хранить прошлое значение и прибавлять дельту.
	var prev Stats

	for {
		select {
		case <-ticker.C:
			stats := m.provider.Stats()

			// Вычисляем приращение и обновляем counters.
			if d := stats.Found - prev.Found; d > 0 {
				m.found.Add(float64(d))
			}
			if d := stats.Deferred - prev.Deferred; d > 0 {
				m.deferred.Add(float64(d))
			}
			if d := stats.Abandoned - prev.Abandoned; d > 0 {
				m.abandoned.Add(float64(d))
			}
			if d := stats.RetryPasses - prev.RetryPasses; d > 0 {
				m.retryPasses.Add(float64(d))
			}

			m.pending.Set(float64(stats.Pending))
			if stats.TimerArmed {
				m.timerArmed.Set(1)
			} else {
				m.timerArmed.Set(0)
			}

			prev = stats
		case <-m.quit:
			return
		}
	}
}
