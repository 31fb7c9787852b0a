package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestUntilNextDigest(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Duration
	}{
		{
			name: "later today",
			now:  time.Date(2026, 8, 22, 6, 0, 0, 0, time.UTC),
			hour: 8, minute: 0,
			want: 2 * time.Hour,
		},
		{
			name: "already passed, tomorrow",
			now:  time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC),
			hour: 8, minute: 0,
			want: 23 * time.Hour,
		},
		{
			name: "exactly now rolls to tomorrow",
			now:  time.Date(2026, 8, 22, 8, 0, 0, 0, time.UTC),
			hour: 8, minute: 0,
			want: 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(func(context.Context) {}, nil, time.Hour, tt.hour, tt.minute)
			s.now = func() time.Time { return tt.now }

			if got := s.untilNextDigest(); got != tt.want {
				t.Errorf("untilNextDigest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStartFiresRefresh(t *testing.T) {
	var refreshes atomic.Int32
	s := New(func(context.Context) { refreshes.Add(1) }, nil, 10*time.Millisecond, 23, 59)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}

	if refreshes.Load() == 0 {
		t.Error("refresh never fired")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := New(func(context.Context) {}, nil, time.Hour, 23, 59)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
