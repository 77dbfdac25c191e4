package http

import (
	"net/http"
	"net/url"
	"strconv"

	"athena/internal/athena"
	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/services"
)

type transactionsView struct {
	Query     services.TransactionQuery
	Page      core.Page[services.TransactionRow]
	PageSizes []int
	Statuses  []services.StatusFilter
	Error     string
}

// PageURL builds the table URL for page n keeping the current filters.
func (v transactionsView) PageURL(n int) string {
	q := url.Values{}
	if v.Query.Search != "" {
		q.Set("q", v.Query.Search)
	}
	q.Set("status", string(v.Query.Status))
	q.Set("size", strconv.Itoa(v.Query.PageSize))
	q.Set("page", strconv.Itoa(n))
	return "/transactions/table?" + q.Encode()
}

type evaluateView struct {
	Input  services.InterceptInput
	Result *athena.InterceptResponse
	Error  string
	Field  string
}

func (s *Server) loadTransactions(r *http.Request) transactionsView {
	q := ParseTransactionQuery(r.URL.Query())
	v := transactionsView{
		Query:     q,
		PageSizes: services.PageSizes,
		Statuses:  []services.StatusFilter{services.StatusAll, services.StatusAllowed, services.StatusBlocked},
	}

	p, err := s.deps.Transactions.List(r.Context(), q)
	if err != nil {
		logOpError(r, applog.ComponentDashboard, applog.OpList, err)
		v.Error = userMessage(err)
		v.Page = core.Paginate[services.TransactionRow](nil, 1, q.PageSize)
		return v
	}
	v.Page = p
	v.Query.Page = p.Number
	return v
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "transactions", pageData{
		Title: "Transactions",
		Content: struct {
			Table    transactionsView
			Evaluate evaluateView
		}{s.loadTransactions(r), evaluateView{}},
	})
}

// handleTransactionsTable serves search, filter, page size and paging.
// Filter inputs send page=1, so a filter change starts from the first page.
func (s *Server) handleTransactionsTable(w http.ResponseWriter, r *http.Request) {
	s.writePartial(w, r, NewHTMXResponse(), "transactions_table", s.loadTransactions(r))
}

// handleEvaluate submits a transaction to the intercept endpoint and shows
// the upstream decision.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := services.InterceptInput{
		Task:     p.Get("task"),
		Category: p.Get("category"),
		Amount:   p.Get("amount"),
	}
	v := evaluateView{Input: in}

	res, err := s.deps.Transactions.Evaluate(r.Context(), in)
	if err != nil {
		logOpError(r, applog.ComponentDashboard, "intercept", err)
		v.Error = userMessage(err)
		if verr, ok := asValidation(err); ok {
			v.Field = verr.Field
		}
		s.writePartial(w, r, NewHTMXResponse().TriggerErrorNotification(v.Error), "evaluate_form", v)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction evaluated",
		applog.FieldComponent, applog.ComponentDashboard,
		applog.FieldCategory, in.Category,
		applog.FieldDecision, string(res.Decision))

	v.Result = &res
	b := NewHTMXResponse().Trigger("history:changed", struct{}{})
	if res.Decision == core.Block {
		b.TriggerNotification(NotificationWarning, "Transaction blocked", 5000)
	} else {
		b.TriggerSuccessNotification("Transaction allowed")
	}
	s.writePartial(w, r, b, "evaluate_form", v)
}
