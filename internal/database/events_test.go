// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package database

import (
	"context"
	"testing"

	"github.com/josuejero/ReelSwipe/internal/metrics"
	"github.com/josuejero/ReelSwipe/internal/recommend"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordImpressions_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rows := []recommend.Impression{
		{ImpressionID: "i1", DeckID: "d1", SessionID: "s", MovieID: "m1", Rank: 1, ReasonCode: recommend.ReasonCF, ModelVersion: "v1", Score: 0.9, TsMs: 10},
		{ImpressionID: "i2", DeckID: "d1", SessionID: "s", MovieID: "m2", Rank: 2, ReasonCode: recommend.ReasonPopularRecent, Score: 0.5, TsMs: 10, RequestID: "r1"},
	}

	before := testutil.ToFloat64(metrics.ImpressionsRecorded.WithLabelValues(recommend.ReasonCF))
	n, err := db.RecordImpressions(ctx, rows)
	if err != nil {
		t.Fatalf("RecordImpressions() error = %v", err)
	}
	if n != 2 {
		t.Errorf("first write = %d, want 2", n)
	}

	n, err = db.RecordImpressions(ctx, rows)
	if err != nil {
		t.Fatalf("RecordImpressions() retry error = %v", err)
	}
	if n != 0 {
		t.Errorf("retry write = %d, want 0", n)
	}
	if got := testutil.ToFloat64(metrics.ImpressionsRecorded.WithLabelValues(recommend.ReasonCF)) - before; got != 1 {
		t.Errorf("impressions metric delta = %v, want 1", got)
	}

	counts, err := db.TableCounts(ctx)
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if counts["recommendation_impressions"] != 2 {
		t.Errorf("stored impressions = %d, want 2", counts["recommendation_impressions"])
	}

	if n, err := db.RecordImpressions(ctx, nil); n != 0 || err != nil {
		t.Errorf("RecordImpressions(nil) = %d, %v", n, err)
	}
}

func TestRecordSwipe(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	dwell := int64(420)
	e := recommend.SwipeEvent{
		EventID:   recommend.SwipeEventID("s", "d1", "m1", recommend.ActionLike, 100),
		SessionID: "s",
		DeckID:    "d1",
		MovieID:   "m1",
		Action:    recommend.ActionLike,
		TsMs:      100,
		DwellMs:   &dwell,
	}

	tests := []struct {
		name    string
		event   recommend.SwipeEvent
		want    bool
		wantErr bool
	}{
		{"first write", e, true, false},
		{"retry is ignored", e, false, false},
		{"missing event id", recommend.SwipeEvent{SessionID: "s", Action: recommend.ActionLike}, false, true},
		{"invalid action", recommend.SwipeEvent{EventID: "x", SessionID: "s", Action: "love"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.RecordSwipe(ctx, tt.event)
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordSwipe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RecordSwipe() = %v, want %v", got, tt.want)
			}
		})
	}
}
