package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"flaretracker/internal/dates"
	"flaretracker/internal/models"
	"flaretracker/internal/services"
	"flaretracker/internal/store"
)

// HandleExportJSON downloads the full persisted document with a
// date-stamped filename. The password hash is stripped from the export.
func HandleExportJSON(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := st.Snapshot()
		snapshot.User.PasswordHash = ""

		body, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to encode export")
			return
		}

		filename := fmt.Sprintf("flaretracker-export-%s.json", dates.DayKey(time.Now()))
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Write(body)
	}
}

// HandleExportCSV downloads the check-in history as CSV, one row per
// condition entry per day.
func HandleExportCSV(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseRange(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot := st.Snapshot()
		names := conditionNames(snapshot.Conditions)

		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)

		header := []string{"date", "condition", "severity", "symptoms", "stress", "sleep", "water", "diet", "weather", "notes"}
		if err := cw.Write(header); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to generate CSV")
			return
		}

		for _, ci := range snapshot.CheckIns {
			if ci.Date.Before(start) || ci.Date.After(end) {
				continue
			}
			for _, e := range ci.ConditionEntries {
				row := []string{
					ci.DayKey(),
					names[e.ConditionID],
					strconv.Itoa(e.Severity),
					strings.Join(e.Symptoms, "; "),
					strconv.Itoa(ci.Factors.Stress),
					strconv.Itoa(ci.Factors.Sleep),
					strconv.Itoa(ci.Factors.Water),
					strconv.Itoa(ci.Factors.Diet),
					ci.Factors.Weather,
					ci.Notes,
				}
				if err := cw.Write(row); err != nil {
					respondError(w, http.StatusInternalServerError, "failed to generate CSV")
					return
				}
			}
		}

		cw.Flush()
		if err := cw.Error(); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to flush CSV writer")
			return
		}

		filename := fmt.Sprintf("flaretracker-checkins-%s-to-%s.csv", dates.DayKey(start), dates.DayKey(end))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}

// HandleExportPDF generates a PDF report: conditions with severity stats,
// medications, and the check-in history for the range.
func HandleExportPDF(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, end, err := parseRange(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		snapshot := st.Snapshot()
		pdfBytes, err := buildPDFReport(snapshot, start, end)
		if err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to generate PDF: %v", err))
			return
		}

		filename := fmt.Sprintf("flaretracker-report-%s-to-%s.pdf", dates.DayKey(start), dates.DayKey(end))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
		w.Write(pdfBytes)
	}
}

func buildPDFReport(snapshot models.Document, start, end time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("FlareTracker Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "FlareTracker Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("%s to %s", dates.DayKey(start), dates.DayKey(end)))
	pdf.Ln(12)

	// Condition summary with stats over the range
	series := services.BuildConditionSeries(snapshot.Conditions, snapshot.Medications, snapshot.CheckIns, start, end)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Conditions")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if len(series) == 0 {
		pdf.Cell(0, 6, "No conditions tracked.")
		pdf.Ln(6)
	}
	for _, s := range series {
		stats := services.ComputeSeverityStats(s.Severities)
		line := fmt.Sprintf("%s - rated %d day(s)", s.ConditionName, stats.RatedDays)
		if stats.RatedDays > 0 {
			line = fmt.Sprintf("%s, avg %.1f, min %d, max %d", line, stats.Average, stats.Min, stats.Max)
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Medications
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Medications")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if len(snapshot.Medications) == 0 {
		pdf.Cell(0, 6, "No medications recorded.")
		pdf.Ln(6)
	}
	for _, m := range snapshot.Medications {
		status := "inactive"
		if m.IsActive {
			status = "active"
		}
		line := fmt.Sprintf("%s (%s, %s)", m.Name, m.Frequency, status)
		if m.Dosage != "" {
			line = fmt.Sprintf("%s - %s", line, m.Dosage)
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	// Check-in history table
	names := conditionNames(snapshot.Conditions)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Check-in History")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(25, 6, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(55, 6, "Condition", "1", 0, "", false, 0, "")
	pdf.CellFormat(20, 6, "Severity", "1", 0, "", false, 0, "")
	pdf.CellFormat(90, 6, "Symptoms", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	for _, ci := range snapshot.CheckIns {
		if ci.Date.Before(start) || ci.Date.After(end) {
			continue
		}
		for _, e := range ci.ConditionEntries {
			severity := "not rated"
			if e.Severity > 0 {
				severity = strconv.Itoa(e.Severity)
			}
			pdf.CellFormat(25, 6, ci.DayKey(), "1", 0, "", false, 0, "")
			pdf.CellFormat(55, 6, names[e.ConditionID], "1", 0, "", false, 0, "")
			pdf.CellFormat(20, 6, severity, "1", 0, "", false, 0, "")
			pdf.CellFormat(90, 6, strings.Join(e.Symptoms, ", "), "1", 1, "", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func conditionNames(conditions []models.Condition) map[string]string {
	names := make(map[string]string, len(conditions))
	for _, c := range conditions {
		names[c.ID] = c.Name
	}
	return names
}
