package core

import (
	"testing"
	"time"

	"github.com/JonMunkholm/tidysheet/internal/table"
)

func TestProfileTable(t *testing.T) {
	tbl := table.New("", "name", "amount", "day")
	day := func(d int) table.Value { return table.Time(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)) }
	_ = tbl.AppendRow(table.Text("ann"), table.Int(10), day(3))
	_ = tbl.AppendRow(table.Text("bob"), table.Int(20), day(1))
	_ = tbl.AppendRow(table.Text("ann"), table.Int(60), day(2))

	profiles := ProfileTable(tbl)
	if len(profiles) != 3 {
		t.Fatalf("got %d profiles, want 3", len(profiles))
	}

	name := profiles[0]
	if name.Kind != "text" || name.Count != 3 || name.Distinct != 2 || name.Numeric != nil || name.Time != nil {
		t.Errorf("name profile = %+v", name)
	}

	amount := profiles[1]
	if amount.Kind != "integer" || amount.Numeric == nil {
		t.Fatalf("amount profile = %+v", amount)
	}
	n := amount.Numeric
	if n.Min != 10 || n.Max != 60 || n.Mean != 30 || n.Median != 20 {
		t.Errorf("numeric summary = %+v", n)
	}

	dates := profiles[2]
	if dates.Kind != "datetime" || dates.Time == nil {
		t.Fatalf("day profile = %+v", dates)
	}
	if dates.Time.Earliest != "2024-01-01" || dates.Time.Latest != "2024-01-03" {
		t.Errorf("time range = %+v", dates.Time)
	}
}

func TestProfileTable_MissingAndEmpty(t *testing.T) {
	tbl := table.New("", "x")
	_ = tbl.AppendRow(table.Missing())
	_ = tbl.AppendRow(table.Float(1.5))

	p := ProfileTable(tbl)[0]
	if p.Count != 1 || p.Missing != 1 || p.Numeric == nil || p.Numeric.Mean != 1.5 {
		t.Errorf("profile = %+v", p)
	}

	if got := ProfileTable(table.New("", "a", "b")); len(got) != 2 || got[0].Count != 0 || got[0].Numeric != nil {
		t.Errorf("zero-row profile = %+v", got)
	}
}
