// Package services holds the pure data-shaping logic behind the trend
// charts and medication alerts. Everything here is a total function over
// in-memory records: no I/O, no retries, deterministic for well-formed
// input.
package services

import (
	"time"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
)

// Day status markers for the UI: severity 0 counts as no data for charting
// and statistics, but renders as "not yet rated" rather than "no entry".
const (
	DayStatusNoEntry = "no-entry"
	DayStatusUnrated = "unrated"
	DayStatusRated   = "rated"
)

// ConditionSeries is one condition's day-aligned trend data. Labels covers
// every calendar day in the requested range; Severities, Overlay and
// Statuses are always the same length as Labels, which downstream charting
// relies on for a stable x-axis. A nil severity means no data for that day
// (no check-in, or the condition was left unrated).
type ConditionSeries struct {
	ConditionID    string                         `json:"condition_id"`
	ConditionName  string                         `json:"condition_name"`
	Color          string                         `json:"color"`
	Labels         []string                       `json:"labels"`
	Severities     []*int                         `json:"severities"`
	Overlay        []*int                         `json:"overlay"`
	Statuses       []string                       `json:"statuses"`
	MedicationDays map[string]MedicationDayDetail `json:"medication_days"`
}

// MedicationDayDetail describes the medications behind an overlay marker.
type MedicationDayDetail struct {
	TakenCount int      `json:"taken_count"`
	TotalCount int      `json:"total_count"`
	TakenNames []string `json:"taken_names"`
}

// BuildConditionSeries assembles a gap-filled severity series for every
// condition over [start, end] inclusive. The overlay holds a marker,
// positioned at the day's recorded severity, for each day on which a
// check-in exists and at least one active associated medication was marked
// taken.
func BuildConditionSeries(conditions []models.Condition, medications []models.Medication, checkIns []models.CheckIn, start, end time.Time) []ConditionSeries {
	days := dates.EnumerateDays(start, end)
	byDay := indexByDay(checkIns)

	out := make([]ConditionSeries, 0, len(conditions))
	for _, cond := range conditions {
		associated := associatedActiveMedications(medications, cond.ID)

		series := ConditionSeries{
			ConditionID:    cond.ID,
			ConditionName:  cond.Name,
			Color:          cond.Color,
			Labels:         make([]string, 0, len(days)),
			Severities:     make([]*int, 0, len(days)),
			Overlay:        make([]*int, 0, len(days)),
			Statuses:       make([]string, 0, len(days)),
			MedicationDays: make(map[string]MedicationDayDetail),
		}

		for _, day := range days {
			key := dates.DayKey(day)
			series.Labels = append(series.Labels, key)

			ci, ok := byDay[key]
			if !ok {
				series.Severities = append(series.Severities, nil)
				series.Overlay = append(series.Overlay, nil)
				series.Statuses = append(series.Statuses, DayStatusNoEntry)
				continue
			}

			entry := ci.Entry(cond.ID)
			switch {
			case entry == nil || entry.Severity == models.SeverityUnrated:
				series.Severities = append(series.Severities, nil)
				series.Statuses = append(series.Statuses, DayStatusUnrated)
			default:
				sev := entry.Severity
				series.Severities = append(series.Severities, &sev)
				series.Statuses = append(series.Statuses, DayStatusRated)
			}

			detail := medicationDayDetail(ci, associated)
			if detail.TakenCount > 0 {
				pos := 0
				if entry != nil {
					pos = entry.Severity
				}
				marker := pos
				series.Overlay = append(series.Overlay, &marker)
				series.MedicationDays[key] = detail
			} else {
				series.Overlay = append(series.Overlay, nil)
			}
		}

		out = append(out, series)
	}
	return out
}

// FactorSeries is the gap-filled lifestyle-factor data for a date range,
// independent of condition. All slices are the same length as Labels. A
// factor value of 0 (not logged) appears as nil, matching severity handling.
type FactorSeries struct {
	Labels  []string `json:"labels"`
	Stress  []*int   `json:"stress"`
	Sleep   []*int   `json:"sleep"`
	Water   []*int   `json:"water"`
	Diet    []*int   `json:"diet"`
	Weather []string `json:"weather"`
}

// BuildFactorSeries assembles the lifestyle-factor series over [start, end].
func BuildFactorSeries(checkIns []models.CheckIn, start, end time.Time) FactorSeries {
	days := dates.EnumerateDays(start, end)
	byDay := indexByDay(checkIns)

	fs := FactorSeries{
		Labels:  make([]string, 0, len(days)),
		Stress:  make([]*int, 0, len(days)),
		Sleep:   make([]*int, 0, len(days)),
		Water:   make([]*int, 0, len(days)),
		Diet:    make([]*int, 0, len(days)),
		Weather: make([]string, 0, len(days)),
	}

	for _, day := range days {
		key := dates.DayKey(day)
		fs.Labels = append(fs.Labels, key)

		ci, ok := byDay[key]
		if !ok {
			fs.Stress = append(fs.Stress, nil)
			fs.Sleep = append(fs.Sleep, nil)
			fs.Water = append(fs.Water, nil)
			fs.Diet = append(fs.Diet, nil)
			fs.Weather = append(fs.Weather, models.WeatherUnknown)
			continue
		}

		fs.Stress = append(fs.Stress, factorPoint(ci.Factors.Stress))
		fs.Sleep = append(fs.Sleep, factorPoint(ci.Factors.Sleep))
		fs.Water = append(fs.Water, factorPoint(ci.Factors.Water))
		fs.Diet = append(fs.Diet, factorPoint(ci.Factors.Diet))
		fs.Weather = append(fs.Weather, ci.Factors.Weather)
	}
	return fs
}

// SeverityStats summarizes a severity series. Days with nil or zero
// severity are excluded; a series with no rated days yields the zero value.
type SeverityStats struct {
	Average   float64 `json:"average"`
	Min       int     `json:"min"`
	Max       int     `json:"max"`
	RatedDays int     `json:"rated_days"`
}

// ComputeSeverityStats derives average/min/max over the rated days of a
// series.
func ComputeSeverityStats(severities []*int) SeverityStats {
	var stats SeverityStats
	sum := 0
	for _, s := range severities {
		if s == nil || *s == models.SeverityUnrated {
			continue
		}
		v := *s
		if stats.RatedDays == 0 {
			stats.Min, stats.Max = v, v
		} else {
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
		}
		sum += v
		stats.RatedDays++
	}
	if stats.RatedDays > 0 {
		stats.Average = float64(sum) / float64(stats.RatedDays)
	}
	return stats
}

// ChartDataset is one chart line, length-aligned to the labels axis.
type ChartDataset struct {
	Label string `json:"label"`
	Data  []*int `json:"data"`
	Color string `json:"color,omitempty"`
}

// ChartData is the {labels, datasets} payload the chart component accepts.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ConditionChartData flattens condition series into a single chart payload,
// with a severity line and a medication-overlay dataset per condition.
func ConditionChartData(series []ConditionSeries) ChartData {
	chart := ChartData{Datasets: []ChartDataset{}}
	if len(series) > 0 {
		chart.Labels = series[0].Labels
	}
	for _, s := range series {
		chart.Datasets = append(chart.Datasets, ChartDataset{
			Label: s.ConditionName,
			Data:  s.Severities,
			Color: s.Color,
		})
		chart.Datasets = append(chart.Datasets, ChartDataset{
			Label: s.ConditionName + " (medication taken)",
			Data:  s.Overlay,
			Color: s.Color,
		})
	}
	return chart
}

// FactorChartData flattens the factor series into a chart payload.
func FactorChartData(fs FactorSeries) ChartData {
	return ChartData{
		Labels: fs.Labels,
		Datasets: []ChartDataset{
			{Label: "Stress", Data: fs.Stress},
			{Label: "Sleep", Data: fs.Sleep},
			{Label: "Water", Data: fs.Water},
			{Label: "Diet", Data: fs.Diet},
		},
	}
}

// indexByDay maps check-ins by calendar-day key. Duplicate days cannot be
// persisted, but if handed malformed input the first match by order wins.
func indexByDay(checkIns []models.CheckIn) map[string]*models.CheckIn {
	byDay := make(map[string]*models.CheckIn, len(checkIns))
	for i := range checkIns {
		key := checkIns[i].DayKey()
		if _, exists := byDay[key]; !exists {
			byDay[key] = &checkIns[i]
		}
	}
	return byDay
}

func associatedActiveMedications(medications []models.Medication, conditionID string) []models.Medication {
	var out []models.Medication
	for _, m := range medications {
		if m.IsActive && m.TreatsCondition(conditionID) {
			out = append(out, m)
		}
	}
	return out
}

func medicationDayDetail(ci *models.CheckIn, associated []models.Medication) MedicationDayDetail {
	detail := MedicationDayDetail{TotalCount: len(associated)}
	for _, m := range associated {
		entry := ci.MedicationEntryFor(m.ID)
		if entry != nil && entry.Taken {
			detail.TakenCount++
			detail.TakenNames = append(detail.TakenNames, m.Name)
		}
	}
	return detail
}

func factorPoint(v int) *int {
	if v <= 0 {
		return nil
	}
	p := v
	return &p
}
