package httpapi

import (
	"net/http"

	"brosolve-backend-go/internal/models"
)

type DayCountDTO struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type TopUserDTO struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Count  int    `json:"count"`
}

type ResolutionTimeResponse struct {
	AvgResolutionHours float64 `json:"avgResolutionHours"`
	MinResolutionHours float64 `json:"minResolutionHours"`
	MaxResolutionHours float64 `json:"maxResolutionHours"`
}

type PublicStatsResponse struct {
	Total   int `json:"total"`
	Solved  int `json:"solved"`
	Today   int `json:"today"`
	Percent int `json:"percent"`
}

type PublicAnalyticsResponse struct {
	PerDayCounts        []DayCountDTO            `json:"perDayCounts"`
	CategoryBreakdown   []map[string]interface{} `json:"categoryBreakdown"`
	StatusBreakdown     []map[string]interface{} `json:"statusBreakdown"`
	CenterTypeBreakdown []map[string]interface{} `json:"centerTypeBreakdown"`
}

func toDayCounts(items []models.DayCount) []DayCountDTO {
	out := make([]DayCountDTO, 0, len(items))
	for _, d := range items {
		out = append(out, DayCountDTO{Date: d.Date, Count: d.Count})
	}
	return out
}

// keyed renames the group key of each row, e.g. {"status": "open", "count": 3}.
func keyed(items []models.KeyCount, name string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]interface{}{name: item.Key, "count": item.Count})
	}
	return out
}

func (s *Server) trend(days int, failed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.Analytics.Trend(r.Context(), days)
		if err != nil {
			s.fail(w, r, err, failed)
			return
		}
		WriteJSON(w, http.StatusOK, toDayCounts(items))
	}
}

func (s *Server) ComplaintsByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := s.Analytics.ByCategory(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching category breakdown")
		return
	}
	WriteJSON(w, http.StatusOK, keyed(items, "category"))
}

func (s *Server) ComplaintsByStatus(w http.ResponseWriter, r *http.Request) {
	items, err := s.Analytics.ByStatus(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching status breakdown")
		return
	}
	WriteJSON(w, http.StatusOK, keyed(items, "status"))
}

func (s *Server) ComplaintsByCenter(w http.ResponseWriter, r *http.Request) {
	items, err := s.Analytics.ByCenter(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching center breakdown")
		return
	}
	WriteJSON(w, http.StatusOK, keyed(items, "centerType"))
}

func (s *Server) TopUsers(w http.ResponseWriter, r *http.Request) {
	items, err := s.Analytics.TopUsers(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching top users")
		return
	}
	out := make([]TopUserDTO, 0, len(items))
	for _, u := range items {
		out = append(out, TopUserDTO{UserID: u.UserID, Name: u.Name, Email: u.Email, Count: u.Count})
	}
	WriteJSON(w, http.StatusOK, out)
}

func (s *Server) ResolutionTime(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Analytics.ResolutionTime(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching resolution time")
		return
	}
	WriteJSON(w, http.StatusOK, ResolutionTimeResponse{
		AvgResolutionHours: summary.AvgHours,
		MinResolutionHours: summary.MinHours,
		MaxResolutionHours: summary.MaxHours,
	})
}

func (s *Server) PublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Analytics.PublicStats(r.Context())
	if err != nil {
		s.fail(w, r, err, "Error fetching stats")
		return
	}
	WriteJSON(w, http.StatusOK, PublicStatsResponse(stats))
}

func (s *Server) PublicAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.PublicAnalytics(r.Context(), parseInt(r.URL.Query().Get("days"), 30))
	if err != nil {
		s.fail(w, r, err, "Error fetching analytics")
		return
	}
	WriteJSON(w, http.StatusOK, PublicAnalyticsResponse{
		PerDayCounts:        toDayCounts(out.PerDay),
		CategoryBreakdown:   keyed(out.Categories, "category"),
		StatusBreakdown:     keyed(out.Statuses, "status"),
		CenterTypeBreakdown: keyed(out.Centers, "centerType"),
	})
}
