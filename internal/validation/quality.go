// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package validation

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/josuejero/ReelSwipe/internal/recommend/storage"
)

// ErrDataQuality is wrapped by every *QualityError.
var ErrDataQuality = errors.New("data-quality gate failed")

const (
	maxInvalidExamples  = 3
	maxDuplicateSamples = 20
)

// QualityError lists every problem the gate found in a snapshot.
type QualityError struct {
	Problems []string
	Reports  []FileReport
}

// Error renders the problems as a bulleted list.
func (e *QualityError) Error() string {
	lines := make([]string, 0, len(e.Problems)+1)
	lines = append(lines, "Data-quality gate failed:")
	for _, p := range e.Problems {
		lines = append(lines, "  - "+p)
	}
	return strings.Join(lines, "\n")
}

// Unwrap returns ErrDataQuality.
func (e *QualityError) Unwrap() error {
	return ErrDataQuality
}

// FieldRule describes one expected field of an event row.
type FieldRule struct {
	Name     string
	Required bool

	// Tag is a validator tag applied to present values.
	Tag string

	// Allowed, when set, restricts present values to these strings.
	Allowed []string
}

// FileRule describes one snapshot event file.
type FileRule struct {
	File     string
	Required bool
	KeyField string
	Fields   []FieldRule
}

// SnapshotRules are the rules applied to snapshot event files.
var SnapshotRules = []FileRule{
	{
		File:     storage.FileSwipeEvents,
		Required: true,
		KeyField: "event_id",
		Fields: []FieldRule{
			{Name: "event_id", Required: true, Tag: TagString},
			{Name: "session_id", Required: true, Tag: TagString},
			{Name: "deck_id", Required: true, Tag: TagString},
			{Name: "movie_id", Required: true, Tag: TagString},
			{Name: "action", Required: true, Tag: TagString, Allowed: []string{"like", "skip"}},
			{Name: "ts_ms", Required: true, Tag: TagNumber},
			{Name: "dwell_ms", Tag: TagNumber},
			{Name: "request_id", Tag: TagString},
			{Name: "anon_user_id", Tag: TagString},
		},
	},
	{
		File:     storage.FileImpressions,
		KeyField: "impression_id",
		Fields: []FieldRule{
			{Name: "impression_id", Required: true, Tag: TagString},
			{Name: "deck_id", Required: true, Tag: TagString},
			{Name: "session_id", Required: true, Tag: TagString},
			{Name: "movie_id", Required: true, Tag: TagString},
			{Name: "rank", Required: true, Tag: TagNumber},
			{Name: "reason_code", Required: true, Tag: TagString},
			{Name: "ts_ms", Required: true, Tag: TagNumber},
			{Name: "model_version", Tag: TagString},
			{Name: "score", Tag: TagNumber},
			{Name: "request_id", Tag: TagString},
		},
	},
}

// FieldStats counts failures of one field.
type FieldStats struct {
	Name            string
	Missing         int
	Invalid         int
	InvalidExamples []any
}

// KeyCount is a duplicated key and how often it occurs.
type KeyCount struct {
	Key   string
	Count int
}

// FileReport is the gate's result for one file.
type FileReport struct {
	File   string
	Rows   int
	Fields []FieldStats

	// DuplicateRows counts rows whose key was already seen.
	DuplicateRows    int
	DuplicateSamples []KeyCount
	MissingKey       int
}

// RawReader returns the contents of a snapshot file.
type RawReader interface {
	ReadRaw(snapshotID, file string) ([]byte, error)
}

// CheckSnapshot runs the gate over every rule in SnapshotRules, printing a
// [DQ] diagnostic for each file to w. It returns a *QualityError when any
// required file is missing or any field or key check fails.
func CheckSnapshot(r RawReader, snapshotID string, w io.Writer) ([]FileReport, error) {
	return CheckFiles(r, snapshotID, SnapshotRules, w)
}

// CheckFiles runs the gate with explicit rules.
func CheckFiles(r RawReader, snapshotID string, rules []FileRule, w io.Writer) ([]FileReport, error) {
	var problems []string
	var reports []FileReport

	for i := range rules {
		rule := &rules[i]
		raw, err := r.ReadRaw(snapshotID, rule.File)
		if errors.Is(err, storage.ErrNotFound) {
			msg := "[DQ] missing file " + rule.File
			if rule.Required {
				problems = append(problems, msg)
				fmt.Fprintf(w, "%s (required)\n", msg)
			} else {
				fmt.Fprintf(w, "%s; skipping optional spec\n", msg)
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			problems = append(problems, rule.File+": invalid JSON")
			continue
		}
		items, ok := doc.([]any)
		if !ok {
			problems = append(problems, rule.File+": expected an array of events")
			continue
		}
		if len(items) == 0 && rule.Required {
			fmt.Fprintf(w, "[DQ] %s is empty; required spec may not return useful metrics\n", rule.File)
		}

		rows := make([]map[string]any, len(items))
		for j, item := range items {
			if m, ok := item.(map[string]any); ok {
				rows[j] = m
			}
		}

		report := CheckRows(rule, rows)
		report.Write(w, rule)
		problems = append(problems, report.Problems(rule)...)
		reports = append(reports, report)
	}

	if len(problems) > 0 {
		return reports, &QualityError{Problems: problems, Reports: reports}
	}
	return reports, nil
}

// CheckRows computes field and key statistics for already decoded rows.
// A nil row is treated as an object with no fields.
func CheckRows(rule *FileRule, rows []map[string]any) FileReport {
	report := FileReport{File: rule.File, Rows: len(rows), Fields: make([]FieldStats, len(rule.Fields))}
	for i, f := range rule.Fields {
		report.Fields[i].Name = f.Name
	}

	seen := make(map[string]int)
	var dupOrder []string

	for _, row := range rows {
		for i, f := range rule.Fields {
			stats := &report.Fields[i]
			value := row[f.Name]
			if isMissing(value) {
				if f.Required {
					stats.Missing++
				}
				continue
			}
			if f.Tag != "" && !CheckValue(value, f.Tag) {
				stats.addInvalid(value)
			}
			if len(f.Allowed) > 0 && !slices.Contains(f.Allowed, stringify(value)) {
				stats.addInvalid(value)
			}
		}

		if rule.KeyField == "" {
			continue
		}
		key := row[rule.KeyField]
		if isMissing(key) {
			report.MissingKey++
			continue
		}
		k := stringify(key)
		seen[k]++
		if seen[k] == 2 {
			dupOrder = append(dupOrder, k)
		}
		if seen[k] >= 2 {
			report.DuplicateRows++
		}
	}

	for _, k := range dupOrder {
		report.DuplicateSamples = append(report.DuplicateSamples, KeyCount{Key: k, Count: seen[k]})
	}
	sort.SliceStable(report.DuplicateSamples, func(i, j int) bool {
		return report.DuplicateSamples[i].Count > report.DuplicateSamples[j].Count
	})
	if len(report.DuplicateSamples) > maxDuplicateSamples {
		report.DuplicateSamples = report.DuplicateSamples[:maxDuplicateSamples]
	}
	return report
}

// Problems lists the failures that fail the gate.
func (r *FileReport) Problems(rule *FileRule) []string {
	var out []string
	for i, f := range rule.Fields {
		stats := r.Fields[i]
		if f.Required && stats.Missing > 0 {
			out = append(out, fmt.Sprintf("%s: %s missing in %d rows", r.File, f.Name, stats.Missing))
		}
		if stats.Invalid > 0 {
			out = append(out, fmt.Sprintf("%s: %s invalid in %d rows", r.File, f.Name, stats.Invalid))
		}
	}
	if rule.KeyField != "" && r.DuplicateRows > 0 {
		out = append(out, fmt.Sprintf("%s: %d duplicate keys", r.File, r.DuplicateRows))
	}
	return out
}

// Write prints the [DQ] diagnostic for the file.
func (r *FileReport) Write(w io.Writer, rule *FileRule) {
	fmt.Fprintf(w, "[DQ] %s (%d rows)\n", r.File, r.Rows)
	for i := range rule.Fields {
		stats := r.Fields[i]
		var msgs []string
		if stats.Missing > 0 {
			msgs = append(msgs, fmt.Sprintf("missing %d (%s)", stats.Missing, formatRate(stats.Missing, r.Rows)))
		}
		if stats.Invalid > 0 {
			example := ""
			if len(stats.InvalidExamples) > 0 {
				if b, err := json.Marshal(stats.InvalidExamples[0]); err == nil {
					example = " e.g. " + string(b)
				}
			}
			msgs = append(msgs, fmt.Sprintf("invalid %d%s", stats.Invalid, example))
		}
		if len(msgs) == 0 {
			fmt.Fprintf(w, "[DQ]   %s: ok\n", stats.Name)
		} else {
			fmt.Fprintf(w, "[DQ]   %s: %s\n", stats.Name, strings.Join(msgs, "; "))
		}
	}

	if r.DuplicateRows == 0 {
		fmt.Fprintln(w, "[DQ]   duplicates: 0 rows")
		return
	}
	samples := make([]string, len(r.DuplicateSamples))
	for i, s := range r.DuplicateSamples {
		samples[i] = fmt.Sprintf("%s (%d)", s.Key, s.Count)
	}
	fmt.Fprintf(w, "[DQ]   duplicates: %d rows (%s); samples: %s\n",
		r.DuplicateRows, formatRate(r.DuplicateRows, r.Rows), strings.Join(samples, ", "))
}

func (s *FieldStats) addInvalid(v any) {
	s.Invalid++
	if len(s.InvalidExamples) < maxInvalidExamples {
		s.InvalidExamples = append(s.InvalidExamples, v)
	}
}

// isMissing reports nil and blank strings.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func formatRate(count, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(count)/float64(total)*100)
}
