package iox

import (
	"context"
	"errors"
	"testing"
	"time"
)

type spyCloser struct{ closed bool }

func (s *spyCloser) Close() error { s.closed = true; return errors.New("ignored") }

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestDiscardErr(t *testing.T) {
	called := false
	DiscardErr(func() error {
		called = true
		return errors.New("ignored")
	})
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestCloseOnDone(t *testing.T) {
	t.Run("closes on cancel", func(t *testing.T) {
		s := &chanCloser{done: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		stop := CloseOnDone(ctx, s)
		defer stop()

		cancel()
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			t.Fatal("Close was not called after cancel")
		}
	})

	t.Run("stop prevents close", func(t *testing.T) {
		s := &chanCloser{done: make(chan struct{})}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stop := CloseOnDone(ctx, s)
		if !stop() {
			t.Fatal("stop reported the closer as already closed")
		}
		cancel()
		select {
		case <-s.done:
			t.Fatal("Close called after stop")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

type chanCloser struct{ done chan struct{} }

func (c *chanCloser) Close() error { close(c.done); return nil }
