// ABOUTME: JSON chart series for the dashboard's client-side charts
// ABOUTME: Each chart reduces the sales dataset with the metrics in the sales package

package webui

import (
	"encoding/json"
	"net/http"

	"github.com/2389/salesboard/internal/sales"
)

// chartData is one chart's series, ready for the chart library.
type chartData struct {
	Name   string    `json:"name"`
	Kind   string    `json:"kind"` // bar, line, or pie
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors"`
}

func fromGroups(c chartData, groups []sales.Group) chartData {
	c.Labels = make([]string, len(groups))
	c.Values = make([]float64, len(groups))
	for i, g := range groups {
		c.Labels[i] = g.Key
		c.Values[i] = g.Total
	}
	c.Colors = colorSeq
	return c
}

func fromCounts(c chartData, counts []sales.Count) chartData {
	c.Labels = make([]string, len(counts))
	c.Values = make([]float64, len(counts))
	for i, n := range counts {
		c.Labels[i] = n.Key
		c.Values[i] = float64(n.Count)
	}
	c.Colors = colorSeq
	return c
}

// buildChart returns the named chart over rows. region applies to the
// per-region chart only. The second result is false for unknown names.
func (u *UI) buildChart(name string, rows []sales.Sale, region string) (chartData, bool) {
	switch name {
	case "top-products":
		return fromGroups(chartData{
			Name: name, Kind: "bar", Title: "Produits les plus vendus",
			XLabel: "Produit", YLabel: "CA (€)",
		}, sales.TopProducts(rows, u.config.TopProducts)), true

	case "category":
		return fromGroups(chartData{
			Name: name, Kind: "bar", Title: "Ventes par catégorie",
			XLabel: "Catégorie", YLabel: "CA (€)",
		}, sales.SalesByCategory(rows)), true

	case "over-time":
		return fromGroups(chartData{
			Name: name, Kind: "line", Title: "Évolution des ventes",
			XLabel: "Date", YLabel: "CA (€)",
		}, sales.SalesOverTime(rows)), true

	case "region-category":
		regions := sales.Regions(rows)
		if !contains(regions, region) && len(regions) > 0 {
			region = regions[0]
		}
		return fromGroups(chartData{
			Name: name, Kind: "bar", Title: "Analyse pour la région : " + region,
			XLabel: "Catégorie", YLabel: "CA (€)",
		}, sales.SalesByCategory(sales.FilterRegion(rows, region))), true

	case "ages":
		return fromCounts(chartData{
			Name: name, Kind: "bar", Title: "Répartition des âges",
			XLabel: "Âge", YLabel: "Clients",
		}, sales.CountBy(rows, sales.AgeKey)), true

	case "genders":
		return fromCounts(chartData{
			Name: name, Kind: "pie", Title: "Répartition par genre",
		}, sales.CountBy(rows, sales.GenderKey)), true
	}
	return chartData{}, false
}

// handleChart serves GET /api/charts/{name}
func (u *UI) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	ds, err := u.data.Dataset(r.Context())
	if err != nil {
		u.log(r).Error("failed to load dataset", "chart", name, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset unavailable"})
		return
	}

	chart, ok := u.buildChart(name, ds.Sales, r.URL.Query().Get("region"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown chart"})
		return
	}

	writeJSON(w, http.StatusOK, chart)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
