package gameloop

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped возвращается при попытке поставить задачу в остановленный цикл
var ErrStopped = errors.New("gameloop: цикл остановлен")

// Loop — кооперативный однопоточный исполнитель. Все задачи выполняются
// на единственной горутине цикла строго по одной; отложенные задачи
// (ScheduleOnce) после срабатывания таймера также попадают в эту
// горутину. Это даёт модель хоста, в которой входные точки планировщика
// и обратные вызовы таймера никогда не перекрываются.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewLoop создаёт цикл с указанной ёмкостью очереди задач
func NewLoop(capacity int) *Loop {
	return &Loop{
		tasks: make(chan func(), capacity),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run запускает горутину цикла
func (l *Loop) Run() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			// Дорабатываем уже поставленные задачи
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		case task := <-l.tasks:
			task()
		}
	}
}

// Post ставит задачу в очередь цикла. Блокируется, если очередь полна.
func (l *Loop) Post(task func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.mu.Unlock()

	select {
	case l.tasks <- task:
		return nil
	case <-l.quit:
		return ErrStopped
	}
}

// ScheduleOnce выполняет задачу на горутине цикла после задержки.
// Это хостовый one-shot таймер: обратный вызов не выполняется
// параллельно с другими задачами цикла.
func (l *Loop) ScheduleOnce(delay time.Duration, task func()) {
	time.AfterFunc(delay, func() {
		// Цикл мог остановиться за время задержки — задача тогда теряется
		_ = l.Post(task)
	})
}

// Stop останавливает цикл и дожидается завершения текущих задач
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.quit)
	<-l.done
}
