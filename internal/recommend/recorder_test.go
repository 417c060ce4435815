// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testDeckRecord() DeckRecord {
	return DeckRecord{
		DeckID:       "d1",
		SessionID:    "s1",
		ModelVersion: "cf_v1",
		RequestID:    "r1",
		Time:         time.UnixMilli(42),
		Movies: []RankedMovie{
			{MovieID: "a", ReasonCode: ReasonCF, Score: 0.9},
			{MovieID: "b", ReasonCode: ReasonPopularRecent, Score: 0.5},
		},
	}
}

func TestRecorderIdempotent(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, zerolog.Nop())
	rows := r.Impressions(testDeckRecord())

	for i := 0; i < 2; i++ {
		if _, err := store.RecordImpressions(context.Background(), rows); err != nil {
			t.Fatalf("RecordImpressions() error = %v", err)
		}
	}
	if len(store.impressions) != len(rows) {
		t.Errorf("stored impressions = %d, want %d", len(store.impressions), len(rows))
	}
}

func TestRecorderRanksAndFreshIDs(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, zerolog.Nop())

	first, err := r.Record(context.Background(), testDeckRecord())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	second, err := r.Record(context.Background(), testDeckRecord())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if first != 2 || second != 2 {
		t.Errorf("written = %d, %d, want 2, 2", first, second)
	}

	rows := r.Impressions(testDeckRecord())
	for i, row := range rows {
		if row.Rank != i+1 {
			t.Errorf("rows[%d].Rank = %d, want %d", i, row.Rank, i+1)
		}
		if row.TsMs != 42 {
			t.Errorf("rows[%d].TsMs = %d, want 42", i, row.TsMs)
		}
	}
	if rows[0].ImpressionID == rows[1].ImpressionID {
		t.Error("impression ids are not unique within a deck")
	}
}

func TestRecorderEmptyDeck(t *testing.T) {
	store := newFakeStore()
	r := NewRecorder(store, zerolog.Nop())
	n, err := r.Record(context.Background(), DeckRecord{DeckID: "d"})
	if err != nil || n != 0 {
		t.Errorf("Record(empty) = %d, %v, want 0, nil", n, err)
	}
}
