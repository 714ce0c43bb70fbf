package core

import (
	"github.com/montanaflynn/stats"

	"github.com/JonMunkholm/tidysheet/internal/clean"
	"github.com/JonMunkholm/tidysheet/internal/table"
)

// NumericSummary describes a number column.
type NumericSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// TimeRange describes a datetime column.
type TimeRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// ColumnProfile summarizes one column of a cleaned table.
type ColumnProfile struct {
	Name     string          `json:"name"`
	Kind     string          `json:"kind"`
	Count    int             `json:"count"`
	Missing  int             `json:"missing"`
	Distinct int             `json:"distinct"`
	Numeric  *NumericSummary `json:"numeric,omitempty"`
	Time     *TimeRange      `json:"time,omitempty"`
}

// ProfileTable summarizes every column of t.
func ProfileTable(t *table.Table) []ColumnProfile {
	kinds := clean.ColumnKinds(t)
	format := table.NewFormatter(t)

	profiles := make([]ColumnProfile, t.NumColumns())
	for j, name := range t.Columns {
		p := ColumnProfile{Name: name, Kind: kinds[j]}

		seen := make(map[string]struct{})
		var nums []float64
		var earliest, latest table.Value
		for _, v := range t.Column(j) {
			if v.IsMissing() {
				p.Missing++
				continue
			}
			p.Count++
			seen[v.Kind().String()+"\x00"+v.String()] = struct{}{}

			switch v.Kind() {
			case table.KindNumber:
				nums = append(nums, v.Float64())
			case table.KindTime:
				if earliest.IsMissing() || v.TimeOf().Before(earliest.TimeOf()) {
					earliest = v
				}
				if latest.IsMissing() || v.TimeOf().After(latest.TimeOf()) {
					latest = v
				}
			}
		}
		p.Distinct = len(seen)

		if len(nums) > 0 && len(nums) == p.Count {
			p.Numeric = summarize(nums)
		}
		if !earliest.IsMissing() {
			p.Time = &TimeRange{
				Earliest: format.Format(j, earliest),
				Latest:   format.Format(j, latest),
			}
		}
		profiles[j] = p
	}
	return profiles
}

func summarize(data []float64) *NumericSummary {
	var s NumericSummary
	var err error

	if s.Min, err = stats.Min(data); err != nil {
		return nil
	}
	if s.Max, err = stats.Max(data); err != nil {
		return nil
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return nil
	}
	if s.Median, err = stats.Median(data); err != nil {
		return nil
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return nil
	}
	return &s
}
