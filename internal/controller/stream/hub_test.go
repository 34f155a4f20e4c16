package stream

import (
	"testing"
)

func TestHub_FanOut(t *testing.T) {
	h := NewHub()

	ch1, unsub1 := h.Subscribe()
	ch2, unsub2 := h.Subscribe()
	ch3, unsub3 := h.Subscribe()
	defer unsub1()
	defer unsub2()
	defer unsub3()

	if h.ClientCount() != 3 {
		t.Fatalf("ClientCount = %d, want 3", h.ClientCount())
	}

	h.Publish([]byte("frame-1"))

	for i, ch := range []<-chan []byte{ch1, ch2, ch3} {
		select {
		case frame := <-ch:
			if string(frame) != "frame-1" {
				t.Errorf("client %d got %q, want frame-1", i, frame)
			}
		default:
			t.Errorf("client %d received nothing", i)
		}
	}
}

func TestHub_SlowClientDropsFrames(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	defer unsub()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish([]byte("x"))
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered frames = %d, want %d", got, subscriberBuffer)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()

	unsub()
	unsub() // idempotent

	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after unsubscribe, want 0", h.ClientCount())
	}

	h.Publish([]byte("late"))
	if len(ch) != 0 {
		t.Error("unsubscribed client should receive nothing")
	}
}
