package tracer

import (
	"testing"
	"time"
)

func TestFormatLogTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero pads", "2024-03-05T07:04:00Z", "05 Mar 2024 07:04"},
		{"fractional seconds", "2023-12-31T23:59:59.123Z", "31 Dec 2023 23:59"},
		{"date only", "2024-01-09", "09 Jan 2024 00:00"},
		{"offset converted", "2024-03-05T09:04:00+02:00", "05 Mar 2024 07:04"},
		{"garbage", "yesterday", "-"},
		{"empty", "", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLogTime(tt.in, nil); got != tt.want {
				t.Errorf("FormatLogTime(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatLogTimeLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	if got := FormatLogTime("2024-03-05T20:30:00Z", loc); got != "06 Mar 2024 03:30" {
		t.Errorf("got %q", got)
	}
}

func TestHydrate(t *testing.T) {
	p := Project{}
	Hydrate(&p, "Dr. Rina")
	if p.Keywords == nil || len(p.Keywords) != 0 {
		t.Errorf("Keywords = %#v", p.Keywords)
	}
	if len(p.Authors) != 1 || p.Authors[0] != "Dr. Rina" {
		t.Errorf("Authors = %#v", p.Authors)
	}

	q := Project{Authors: []string{"A", "B"}}
	Hydrate(&q, "Dr. Rina")
	if len(q.Authors) != 2 {
		t.Errorf("existing authors overwritten: %v", q.Authors)
	}
}

func TestNormalizeProject(t *testing.T) {
	p := Project{Progress: 140}
	p.Normalize()
	if p.Status != StatusIdea || p.Progress != 100 {
		t.Errorf("got status %q progress %d", p.Status, p.Progress)
	}
	p.Progress = -3
	p.Normalize()
	if p.Progress != 0 {
		t.Errorf("progress = %d", p.Progress)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusInProgress.Valid() {
		t.Error("In Progress should be valid")
	}
	if Status("Abandoned").Valid() {
		t.Error("Abandoned should be invalid")
	}
}

func TestSortLogsNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := []Log{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
	}
	SortLogsNewestFirst(logs)
	if logs[0].ID != "c" || logs[1].ID != "b" || logs[2].ID != "a" {
		t.Errorf("order = %s%s%s", logs[0].ID, logs[1].ID, logs[2].ID)
	}
}

func TestRecomputeBalances(t *testing.T) {
	entries := []Finance{
		{ID: "3", Date: "2024-02-01", Type: FinanceExpense, Amount: 30},
		{ID: "1", Date: "2024-01-01", Type: FinanceIncome, Amount: 100},
		{ID: "2", Date: "2024-01-15", Type: FinanceExpense, Amount: 25.5},
	}
	RecomputeBalances(entries)

	want := map[string]float64{"1": 100, "2": 74.5, "3": 44.5}
	for i, e := range entries {
		if e.Balance != want[e.ID] {
			t.Errorf("entry %s balance = %v, want %v", e.ID, e.Balance, want[e.ID])
		}
		if i > 0 && entries[i-1].Date > e.Date {
			t.Errorf("entries not sorted by date")
		}
	}
}
