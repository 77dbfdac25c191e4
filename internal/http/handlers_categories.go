package http

import (
	"net/http"

	"athena/internal/core"
	applog "athena/internal/log"
	"athena/internal/services"
)

type categoriesView struct {
	Categories []core.Category
	Error      string
}

type categoryFormView struct {
	Editing  bool
	Original string
	Name     string
	Limit    string
	Error    string
	Field    string
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	v := categoriesView{}
	cats, err := s.deps.Categories.List(r.Context())
	if err != nil {
		logOpError(r, applog.ComponentCategory, applog.OpList, err)
		v.Error = userMessage(err)
	}
	v.Categories = cats
	s.renderPage(w, r, "categories", pageData{Title: "Categories", Content: v})
}

// handleCategoryForm opens the add or edit modal.
func (s *Server) handleCategoryForm(w http.ResponseWriter, r *http.Request) {
	v := categoryFormView{}
	if name := r.PathValue("name"); name != "" {
		c, err := s.deps.Categories.Find(r.Context(), name)
		if err != nil {
			s.failMutation(w, r, applog.ComponentCategory, applog.OpRead, err)
			return
		}
		v = categoryFormView{Editing: true, Original: c.Name, Name: c.Name, Limit: services.LimitInput(c.InitialLimit)}
	}
	s.writePartial(w, r, NewHTMXResponse(), "category_modal", v)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := services.CategoryInput{Name: p.Get("name"), Limit: p.Get("limit")}

	cats, err := s.deps.Categories.Create(r.Context(), in)
	if err != nil {
		s.categoryFormFailed(w, r, applog.OpCreate, categoryFormView{Name: in.Name, Limit: in.Limit}, err)
		return
	}
	s.categoriesChanged(w, r, cats, "Category created")
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	in := services.CategoryInput{Name: p.Get("name"), Limit: p.Get("limit")}
	form := categoryFormView{Editing: true, Original: name, Name: in.Name, Limit: in.Limit}

	current, err := s.deps.Categories.Find(r.Context(), name)
	if err != nil {
		s.categoryFormFailed(w, r, applog.OpUpdate, form, err)
		return
	}
	cats, err := s.deps.Categories.Update(r.Context(), current, in)
	if err != nil {
		s.categoryFormFailed(w, r, applog.OpUpdate, form, err)
		return
	}
	s.categoriesChanged(w, r, cats, "Category updated")
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Categories.Delete(r.Context(), r.PathValue("name"))
	if err != nil {
		s.failMutation(w, r, applog.ComponentCategory, applog.OpDelete, err)
		return
	}
	s.categoriesChanged(w, r, cats, "Category deleted")
}

// categoriesChanged swaps the re-fetched grid in and closes the modal.
func (s *Server) categoriesChanged(w http.ResponseWriter, r *http.Request, cats []core.Category, msg string) {
	b := NewHTMXResponse().
		Retarget("#category-grid").
		Reswap("outerHTML").
		TriggerModalClose().
		TriggerCategoriesChanged().
		TriggerSuccessNotification(msg)
	s.writePartial(w, r, b, "category_grid", categoriesView{Categories: cats})
}

// categoryFormFailed keeps the modal open with the error shown in it.
func (s *Server) categoryFormFailed(w http.ResponseWriter, r *http.Request, op string, form categoryFormView, err error) {
	logOpError(r, applog.ComponentCategory, op, err)
	form.Error = userMessage(err)
	if verr, ok := asValidation(err); ok {
		form.Field = verr.Field
	}
	b := NewHTMXResponse().
		Status(statusFor(err)).
		Retarget("#modal").
		Reswap("innerHTML").
		TriggerErrorNotification(form.Error)
	s.writePartial(w, r, b, "category_modal", form)
}
