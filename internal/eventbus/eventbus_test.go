package eventbus

import (
	"context"
	"testing"
)

func TestSynchronousDelivery(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var got []string
	_, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		got = append(got, ev.EventType)
	})
	if err != nil {
		t.Fatalf("Ошибка подписки: %v", err)
	}

	// Publish синхронный: после возврата обработчик уже выполнен
	if err := bus.Publish(ctx, NewEnvelope("test", "A", nil)); err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}
	if err := bus.Publish(ctx, NewEnvelope("test", "B", nil)); err != nil {
		t.Fatalf("Ошибка публикации: %v", err)
	}

	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("Ожидалась доставка [A B], получено %v", got)
	}
}

func TestFilterByType(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var spawns, all int
	bus.Subscribe(ctx, Filter{Types: []string{"EntitySpawned"}}, func(ctx context.Context, ev *Envelope) {
		spawns++
	})
	bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		all++
	})

	bus.Publish(ctx, NewEnvelope("test", "EntitySpawned", nil))
	bus.Publish(ctx, NewEnvelope("test", "EntityRespawned", nil))

	if spawns != 1 {
		t.Errorf("Фильтр по типу: ожидалось 1 событие, получено %d", spawns)
	}
	if all != 2 {
		t.Errorf("Пустой фильтр: ожидалось 2 события, получено %d", all)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var count int
	sub, _ := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		count++
	})

	bus.Publish(ctx, NewEnvelope("test", "A", nil))
	sub.Unsubscribe()
	bus.Publish(ctx, NewEnvelope("test", "B", nil))

	if count != 1 {
		t.Errorf("После отписки ожидалось 1 событие, получено %d", count)
	}

	stats := bus.Metrics()
	if stats.Published != 2 || stats.Consumed != 1 {
		t.Errorf("Метрики: ожидалось published=2 consumed=1, получено %+v", stats)
	}
}

func TestEnvelopeIdentity(t *testing.T) {
	e1 := NewEnvelope("src", "T", nil)
	e2 := NewEnvelope("src", "T", nil)

	if e1.ID == "" || e1.ID == e2.ID {
		t.Error("Конверты должны получать уникальные ID")
	}
	if e1.Source != "src" || e1.EventType != "T" {
		t.Errorf("Неверно заполнен конверт: %+v", e1)
	}
}
