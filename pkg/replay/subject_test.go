package replay

import (
	"sync"
	"testing"
)

func TestSubject_ReplayLast(t *testing.T) {
	s := New(0)
	s.Publish(1)
	s.Publish(2)

	var got []int
	s.Subscribe(func(v int) { got = append(got, v) })
	s.Publish(3)

	want := []int{2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if s.Value() != 3 {
		t.Errorf("Value() = %d, want 3", s.Value())
	}
}

func TestSubject_Unsubscribe(t *testing.T) {
	s := New("init")

	calls := 0
	unsubscribe := s.Subscribe(func(string) { calls++ })
	unsubscribe()
	unsubscribe() // idempotent

	s.Publish("next")
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (initial replay only)", calls)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSubject_UnsubscribeDuringDelivery(t *testing.T) {
	s := New(0)

	var unsubscribe func()
	calls := 0
	unsubscribe = s.Subscribe(func(v int) {
		calls++
		if v == 1 {
			unsubscribe()
		}
	})

	s.Publish(1)
	s.Publish(2)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSubject_SubscriptionOrder(t *testing.T) {
	s := New(0)

	var order []string
	s.Subscribe(func(int) { order = append(order, "a") })
	s.Subscribe(func(int) { order = append(order, "b") })
	order = nil

	s.Publish(1)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("delivery order = %v, want [a b]", order)
	}
}

func TestSubject_ConcurrentPublishIsOrderedPerSubscriber(t *testing.T) {
	s := New(0)

	var mu sync.Mutex
	var seen []int
	s.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			s.Publish(v)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 51 {
		t.Fatalf("seen %d values, want 51", len(seen))
	}
	if seen[len(seen)-1] != s.Value() {
		t.Errorf("last delivered %d, current value %d", seen[len(seen)-1], s.Value())
	}
}
