package forecast

import (
	"encoding/csv"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// csvHeader matches the tabular surface consumed by downstream
// reporting tools: one row per simulated calendar date.
var csvHeader = []string{"date", "guests", "drinks", "light_liters", "heavy_liters", "total_liters"}

// ExportRunCSV handles GET /api/v1/forecasts/{runID}/export
// Streams the daily series as CSV.
func (s *Service) ExportRunCSV(w http.ResponseWriter, r *http.Request) {
	records, ok := s.replayRun(w, r)
	if !ok {
		return
	}
	runID := chi.URLParam(r, "runID")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="forecast-`+runID+`.csv"`)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return
	}
	for _, rec := range records {
		row := []string{
			rec.Date.Format("2006-01-02"),
			rec.Guests.String(),
			rec.Drinks.String(),
			rec.LightLiters.String(),
			rec.HeavyLiters.String(),
			rec.TotalLiters.String(),
		}
		if err := cw.Write(row); err != nil {
			return
		}
	}
	cw.Flush()
}
