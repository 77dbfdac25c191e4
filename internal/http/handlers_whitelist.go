package http

import (
	"net/http"
	"strings"

	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/services"
)

type whitelistView struct {
	Categories []core.Category
	Panel      domainPanel
	Error      string
}

// domainPanel is the selected category's whitelist with its add form.
type domainPanel struct {
	Category    core.Category
	HasCategory bool
	Page        core.Page[string]
	Input       string
	Error       string
}

func (s *Server) panelFor(cats []core.Category, name string, page int) domainPanel {
	if len(cats) == 0 {
		return domainPanel{Page: core.Paginate[string](nil, 1, services.DomainPageSize)}
	}
	selected := cats[0]
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			selected = c
			break
		}
	}
	return domainPanel{
		Category:    selected,
		HasCategory: true,
		Page:        s.deps.Whitelist.Page(selected, page),
	}
}

func (s *Server) handleWhitelist(w http.ResponseWriter, r *http.Request) {
	v := whitelistView{}
	cats, err := s.deps.Whitelist.Categories(r.Context())
	if err != nil {
		logOpError(r, applog.ComponentWhitelist, applog.OpList, err)
		v.Error = userMessage(err)
	}
	v.Categories = cats
	v.Panel = s.panelFor(cats, r.URL.Query().Get("category"), ParsePage(r.URL.Query()))
	s.renderPage(w, r, "whitelist", pageData{Title: "Whitelist", Content: v})
}

// handleDomainList serves category switches and paging.
func (s *Server) handleDomainList(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Whitelist.Categories(r.Context())
	if err != nil {
		s.failMutation(w, r, applog.ComponentWhitelist, applog.OpList, err)
		return
	}
	panel := s.panelFor(cats, r.URL.Query().Get("category"), ParsePage(r.URL.Query()))
	s.writePartial(w, r, NewHTMXResponse(), "domain_panel", panel)
}

func (s *Server) handleAddDomain(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	category := r.PathValue("category")
	domain := p.Get("domain")

	res, err := s.deps.Whitelist.AddDomain(r.Context(), category, domain)
	if err != nil {
		if _, ok := asValidation(err); !ok {
			s.failMutation(w, r, applog.ComponentWhitelist, applog.OpUpdate, err)
			return
		}
		logOpError(r, applog.ComponentWhitelist, applog.OpValidate, err)
		c, ferr := s.deps.Categories.Find(r.Context(), category)
		if ferr != nil {
			s.failMutation(w, r, applog.ComponentWhitelist, applog.OpRead, ferr)
			return
		}
		panel := domainPanel{
			Category:    c,
			HasCategory: true,
			Page:        s.deps.Whitelist.Page(c, ParsePage(r.URL.Query())),
			Input:       domain,
			Error:       userMessage(err),
		}
		s.writePartial(w, r, NewHTMXResponse().Status(http.StatusUnprocessableEntity), "domain_panel", panel)
		return
	}

	if !res.Reverted() {
		logDomainEdit(r, applog.OpCreate, category, domain)
	}
	msg := "Domain " + domain + " added"
	if res.Duplicate {
		msg += " (it was already whitelisted)"
	}
	// the new domain is last, so show the last page
	s.writeWhitelistResult(w, r, res, len(res.Domains), msg)
}

func (s *Server) handleRemoveDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.PathValue("domain")
	res, err := s.deps.Whitelist.RemoveDomain(r.Context(), r.PathValue("category"), domain, ParsePosition(r.URL.Query()))
	if err != nil {
		s.failMutation(w, r, applog.ComponentWhitelist, applog.OpUpdate, err)
		return
	}
	if !res.Reverted() {
		logDomainEdit(r, applog.OpDelete, res.Category.Name, domain)
	}
	page := ParsePage(r.URL.Query())
	s.writeWhitelistResult(w, r, res, (page-1)*services.DomainPageSize+1, "Domain "+domain+" removed")
}

// writeWhitelistResult renders the list after an optimistic edit: the new
// list when the API accepted it, the previous list plus an error otherwise.
func (s *Server) writeWhitelistResult(w http.ResponseWriter, r *http.Request, res services.WhitelistResult, position int, msg string) {
	page := 1
	if position > 0 {
		page = (position-1)/services.DomainPageSize + 1
	}
	panel := domainPanel{
		Category:    res.Category,
		HasCategory: true,
		Page:        core.Paginate(res.Domains, page, services.DomainPageSize),
	}

	b := NewHTMXResponse()
	if res.Reverted() {
		logOpError(r, applog.ComponentWhitelist, applog.OpReplace, res.Err)
		b.TriggerErrorNotification("Change reverted: " + userMessage(res.Err))
	} else {
		b.TriggerDomainsChanged(res.Category.Name).TriggerSuccessNotification(msg)
	}
	s.writePartial(w, r, b, "domain_panel", panel)
}

func logDomainEdit(r *http.Request, op, category, domain string) {
	ctx := r.Context()
	applog.FromContext(ctx).WithComponent(applog.ComponentWhitelist).InfoContext(ctx, "Whitelist edited",
		applog.FieldOperation, op, applog.FieldCategory, category, applog.FieldDomain, domain)
}
