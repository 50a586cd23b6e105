package handlers

import (
	"net/http"
	"strconv"
	"time"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
	"flaretracker/internal/services"
	"flaretracker/internal/store"
)

// parseRange reads start_date/end_date query params, defaulting to the
// trailing 30 days.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	end := dates.Today()
	start := end.AddDate(0, 0, -(services.DefaultLookbackDays - 1))

	if param := r.URL.Query().Get("start_date"); param != "" {
		parsed, err := dates.ParseDay(param)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if param := r.URL.Query().Get("end_date"); param != "" {
		parsed, err := dates.ParseDay(param)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}

// HandleGetConditionTrends returns the gap-filled severity series with
// medication overlays for every condition, plus the flattened chart
// payload.
func HandleGetConditionTrends(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseRange(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if end.Before(start) {
			respondError(w, http.StatusBadRequest, "end_date must not precede start_date")
			return
		}

		snapshot := st.Snapshot()
		conditions := snapshot.Conditions
		if id := r.URL.Query().Get("condition_id"); id != "" {
			condition, err := st.GetCondition(id)
			if err != nil {
				respondStoreError(w, err)
				return
			}
			conditions = []models.Condition{condition}
		}

		series := services.BuildConditionSeries(conditions, snapshot.Medications, snapshot.CheckIns, start, end)

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"series": series,
			"chart":  services.ConditionChartData(series),
		})
	}
}

// HandleGetFactorTrends returns the lifestyle-factor series and chart
// payload for a date range.
func HandleGetFactorTrends(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseRange(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if end.Before(start) {
			respondError(w, http.StatusBadRequest, "end_date must not precede start_date")
			return
		}

		snapshot := st.Snapshot()
		series := services.BuildFactorSeries(snapshot.CheckIns, start, end)

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"series": series,
			"chart":  services.FactorChartData(series),
		})
	}
}

// ConditionStatsResponse pairs a condition with its severity statistics.
type ConditionStatsResponse struct {
	ConditionID   string                 `json:"condition_id"`
	ConditionName string                 `json:"condition_name"`
	Stats         services.SeverityStats `json:"stats"`
}

// HandleGetConditionStats returns average/min/max severity per condition
// over a date range. Unrated and missing days are excluded.
func HandleGetConditionStats(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseRange(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot := st.Snapshot()
		series := services.BuildConditionSeries(snapshot.Conditions, snapshot.Medications, snapshot.CheckIns, start, end)

		stats := make([]ConditionStatsResponse, 0, len(series))
		for _, s := range series {
			stats = append(stats, ConditionStatsResponse{
				ConditionID:   s.ConditionID,
				ConditionName: s.ConditionName,
				Stats:         services.ComputeSeverityStats(s.Severities),
			})
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// HandleGetAlerts evaluates medication usage-limit alerts over a lookback
// window.
func HandleGetAlerts(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := services.DefaultLookbackDays
		if param := r.URL.Query().Get("days"); param != "" {
			if d, err := strconv.Atoi(param); err == nil && d > 0 {
				days = d
			}
		}

		snapshot := st.Snapshot()
		alerts := services.EvaluateMedicationAlerts(snapshot.Medications, snapshot.CheckIns, time.Now(), days)
		respondJSON(w, http.StatusOK, alerts)
	}
}
