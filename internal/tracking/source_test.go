package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/thumbstick/internal/hand"
)

func TestHub_SubscribeOrderAndUnsubscribe(t *testing.T) {
	var h hub
	var got []string

	unsubA := h.Subscribe(func(hand.Update) { got = append(got, "a") })
	h.Subscribe(func(hand.Update) { got = append(got, "b") })

	h.publish(hand.Update{})
	unsubA()
	unsubA()
	h.publish(hand.Update{})

	want := []string{"a", "b", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d = %s, want %s", i, got[i], want[i])
		}
	}
	if n := h.Subscribers(); n != 1 {
		t.Errorf("Subscribers() = %d, want 1", n)
	}
}

func TestMockSource(t *testing.T) {
	m := NewMockSource()
	var count int
	m.Subscribe(func(hand.Update) { count++ })

	m.Push(hand.Update{})
	if count != 0 {
		t.Error("stopped source should not deliver")
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	m.Start(context.Background())
	m.Push(hand.Update{})
	if count != 1 {
		t.Errorf("delivered %d updates, want 1", count)
	}

	m.Stop()
	m.Stop()
	if m.Starts() != 1 || m.Stops() != 1 {
		t.Errorf("starts=%d stops=%d, want 1/1", m.Starts(), m.Stops())
	}

	m.FailStart(ErrTrackingUnavailable)
	if err := m.Start(context.Background()); !errors.Is(err, ErrTrackingUnavailable) {
		t.Errorf("Start() = %v, want ErrTrackingUnavailable", err)
	}
}

func frames(n int, step time.Duration) []Frame {
	out := make([]Frame, n)
	base := time.Unix(1700000000, 0)
	for i := range out {
		out[i] = Frame{
			Offset: time.Duration(i) * step,
			Update: hand.Update{Timestamp: base.Add(time.Duration(i) * step)},
		}
	}
	return out
}

func TestReplaySource_Empty(t *testing.T) {
	r := NewReplaySource(nil)

	err := r.Start(context.Background())
	if !errors.Is(err, ErrTrackingUnavailable) {
		t.Errorf("Start() = %v, want ErrTrackingUnavailable", err)
	}
	r.Stop()
}

func TestReplaySource_PlaysInOrder(t *testing.T) {
	in := frames(5, 10*time.Millisecond)
	r := NewReplaySource(in, WithSpeed(0))

	var mu sync.Mutex
	var got []time.Time
	r.Subscribe(func(u hand.Update) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u.Timestamp)
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not finish")
	}
	r.Stop()
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(in) {
		t.Fatalf("got %d frames, want %d", len(got), len(in))
	}
	for i := range in {
		if !got[i].Equal(in[i].Update.Timestamp) {
			t.Errorf("frame %d timestamp = %v, want %v", i, got[i], in[i].Update.Timestamp)
		}
	}
}

func TestReplaySource_RestartAfterFinish(t *testing.T) {
	r := NewReplaySource(frames(3, time.Millisecond), WithSpeed(0))
	var mu sync.Mutex
	count := 0
	r.Subscribe(func(hand.Update) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for round := 1; round <= 2; round++ {
		if err := r.Start(context.Background()); err != nil {
			t.Fatalf("Start() round %d error = %v", round, err)
		}
		select {
		case <-r.Done():
		case <-time.After(time.Second):
			t.Fatalf("round %d did not finish", round)
		}
	}
	r.Stop()

	mu.Lock()
	defer mu.Unlock()
	if count != 6 {
		t.Errorf("delivered %d updates over two plays, want 6", count)
	}
}

func TestReplaySource_KeepsCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing test in short mode")
	}

	r := NewReplaySource(frames(4, 30*time.Millisecond))

	start := time.Now()
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-r.Done()
	r.Stop()

	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("replay took %v, want at least 90ms", elapsed)
	}
}

func TestReplaySource_StopInterruptsLoop(t *testing.T) {
	r := NewReplaySource(frames(3, 5*time.Millisecond), WithLoop(true))

	var mu sync.Mutex
	count := 0
	r.Subscribe(func(hand.Update) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	select {
	case <-r.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if count <= 3 {
		t.Errorf("looping replay delivered %d frames, want more than 3", count)
	}
}

func TestReplaySource_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewReplaySource(frames(2, time.Hour))

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("replay did not stop on context cancel")
	}
	r.Stop()
}
