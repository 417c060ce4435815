// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

type fakePruner struct {
	mu         sync.Mutex
	logCutoffs []time.Time
	swipeCalls int
	logRows    int64
	logErr     error
}

func (f *fakePruner) PruneRequestLogs(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logCutoffs = append(f.logCutoffs, cutoff)
	return f.logRows, f.logErr
}

func (f *fakePruner) PruneSwipeEvents(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swipeCalls++
	return 1, nil
}

func (f *fakePruner) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logCutoffs), f.swipeCalls
}

func TestRetentionService_String(t *testing.T) {
	svc := NewRetentionService(&fakePruner{}, RetentionConfig{}, zerolog.Nop())
	if got := svc.String(); got != "retention" {
		t.Errorf("String() = %q, want retention", got)
	}
	if svc.config.Interval != time.Hour {
		t.Errorf("default interval = %v, want 1h", svc.config.Interval)
	}
}

func TestRetentionService_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		cfg        RetentionConfig
		wantLogs   int
		wantSwipes int
	}{
		{"request logs only", RetentionConfig{RequestLogDays: 14}, 1, 0},
		{"both tables", RetentionConfig{RequestLogDays: 14, SwipeEventDays: 90}, 1, 1},
		{"disabled", RetentionConfig{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePruner{logRows: 3}
			svc := NewRetentionService(p, tt.cfg, zerolog.Nop())
			svc.now = func() time.Time { return now }

			svc.prune(context.Background())

			logs, swipes := p.calls()
			if logs != tt.wantLogs || swipes != tt.wantSwipes {
				t.Errorf("calls = %d/%d, want %d/%d", logs, swipes, tt.wantLogs, tt.wantSwipes)
			}
			if logs > 0 {
				if want := now.Add(-14 * day); !p.logCutoffs[0].Equal(want) {
					t.Errorf("cutoff = %v, want %v", p.logCutoffs[0], want)
				}
			}
		})
	}
}

func TestRetentionService_RecordsMetric(t *testing.T) {
	c := metrics.RetentionRowsPruned.WithLabelValues("request_logs")
	before := testutil.ToFloat64(c)

	svc := NewRetentionService(&fakePruner{logRows: 5}, RetentionConfig{RequestLogDays: 1}, zerolog.Nop())
	svc.prune(context.Background())

	if got := testutil.ToFloat64(c) - before; got != 5 {
		t.Errorf("pruned rows delta = %v, want 5", got)
	}
}

func TestRetentionService_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	p := &fakePruner{logErr: errors.New("disk full")}
	svc := NewRetentionService(p, RetentionConfig{RequestLogDays: 1}, zerolog.New(&buf))

	svc.prune(context.Background())

	if !strings.Contains(buf.String(), "retention prune failed") {
		t.Errorf("log = %q, want prune failure", buf.String())
	}
}

func TestRetentionService_ServeRunsOnStartAndStops(t *testing.T) {
	p := &fakePruner{}
	svc := NewRetentionService(p, RetentionConfig{RequestLogDays: 1, Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want deadline exceeded", err)
	}
	if logs, _ := p.calls(); logs != 1 {
		t.Errorf("startup prunes = %d, want 1", logs)
	}
}
