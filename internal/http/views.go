package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/report"
	"athena/internal/services"
	"athena/internal/storage"
)

// page names a full-page template and the layout it renders in.
type page struct {
	file   string
	layout string
}

var pages = map[string]page{
	"login":        {"login.html", "auth_layout"},
	"signup":       {"signup.html", "auth_layout"},
	"overview":     {"overview.html", "layout"},
	"transactions": {"transactions.html", "layout"},
	"categories":   {"categories.html", "layout"},
	"whitelist":    {"whitelist.html", "layout"},
	"settings":     {"settings.html", "layout"},
}

type navItem struct {
	Key   string
	Label string
	Href  string
	Icon  string
}

var navItems = []navItem{
	{"overview", "Overview", "/overview", "grid"},
	{"whitelist", "Whitelist", "/whitelist", "shield"},
	{"transactions", "Transactions", "/transactions", "list"},
	{"categories", "Categories", "/categories", "folder"},
	{"settings", "Settings", "/settings", "gear"},
}

// pageData is what the layouts render around a page's content.
type pageData struct {
	Title        string
	Active       string
	Nav          []navItem
	NavCollapsed bool
	User         storage.Session
	Content      any
}

type views struct {
	pages    map[string]*template.Template
	partials *template.Template
}

var funcs = template.FuncMap{
	"usd":        core.FormatUSD,
	"outflow":    core.FormatOutflow,
	"count":      core.FormatCount,
	"mask":       services.MaskAPIKey,
	"limitInput": services.LimitInput,
	"pathEscape": url.PathEscape,
	"query":      url.QueryEscape,
	"lower":      strings.ToLower,
	"add":        func(a, b int) int { return a + b },
	"pct": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f)
	},
	"barWidth": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f)
	},
	"barHeight": func(n, top int) string {
		if top <= 0 || n <= 0 {
			return "0%"
		}
		return fmt.Sprintf("%.1f%%", float64(n)*100/float64(top))
	},
	"seriesMax": func(series []report.Bucket) int {
		m := 0
		for _, b := range series {
			m = max(m, b.Allowed+b.Blocked)
		}
		return m
	},
	"negative": func(d decimal.Decimal) bool { return d.IsNegative() },
}

// loadViews parses the shared layouts and partials, then one clone per page
// so every page can define its own "content".
func loadViews(fsys fs.FS) (*views, error) {
	base, err := template.New("").Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, err
	}

	v := &views{pages: make(map[string]*template.Template, len(pages)), partials: base}
	for name, p := range pages {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, "templates/pages/"+p.file)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// renderPage writes a full page. Errors are logged and answered with 500.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	s.renderPageStatus(w, r, name, http.StatusOK, data)
}

func (s *Server) renderPageStatus(w http.ResponseWriter, r *http.Request, name string, status int, data pageData) {
	t, ok := s.views.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	data.Active = name
	data.Nav = navItems
	data.NavCollapsed = navCollapsed(r)
	if sess, ok := sessionFrom(r.Context()); ok {
		data.User = sess
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, pages[name].layout, data); err != nil {
		s.logTemplateError(r, name, err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPartial executes a fragment into memory so the caller can attach
// triggers and a status before writing.
func (s *Server) renderPartial(r *http.Request, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.views.partials.ExecuteTemplate(&buf, name, data); err != nil {
		s.logTemplateError(r, name, err)
		return "", err
	}
	return buf.String(), nil
}

// writePartial renders name and writes it with the builder's triggers.
func (s *Server) writePartial(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	html, err := s.renderPartial(r, name, data)
	if err != nil {
		InternalServerError("Error rendering view").Write(w)
		return
	}
	b.BodyHTML(html).Write(w)
}

func (s *Server) logTemplateError(r *http.Request, name string, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
		applog.FieldComponent, applog.ComponentTemplate,
		applog.FieldOperation, applog.OpRender,
		"template", name,
		applog.FieldError, err)
}
