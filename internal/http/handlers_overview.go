package http

import (
	"net/http"

	applog "athena/internal/log"
	"athena/internal/report"
	"athena/internal/services"
)

type overviewView struct {
	Range  report.Range
	Ranges []report.Range
	Report report.Report
	Recent []services.TransactionRow
	Error  string
}

func (s *Server) loadOverview(r *http.Request) overviewView {
	rng := ParseRange(r.URL.Query())
	v := overviewView{Range: rng, Ranges: report.Ranges}

	ov, err := s.deps.Dashboard.Overview(r.Context(), rng)
	if err != nil {
		logOpError(r, applog.ComponentDashboard, applog.OpRead, err)
		v.Error = userMessage(err)
		return v
	}
	ctx := r.Context()
	applog.FromContext(ctx).WithComponent(applog.ComponentDashboard).DebugContext(ctx, "Overview report built",
		applog.FieldRange, rng, "scanned", ov.Report.Scanned, "blocked", ov.Report.Blocked)
	v.Report = ov.Report
	v.Recent = ov.Recent
	return v
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "overview", pageData{Title: "Overview", Content: s.loadOverview(r)})
}

// handleOverviewReport re-renders stats, chart and recent rows for the
// selected range.
func (s *Server) handleOverviewReport(w http.ResponseWriter, r *http.Request) {
	s.writePartial(w, r, NewHTMXResponse(), "overview_report", s.loadOverview(r))
}
