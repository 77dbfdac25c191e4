package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"athena/internal/athena"
	applog "athena/internal/log"
	"athena/internal/services"
	"athena/internal/storage"
)

const (
	sessionCookie = "athena_session"
	navCookie     = "athena_nav"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) (storage.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(storage.Session)
	return s, ok
}

// requireSession resolves the session cookie. Requests without a live
// session go to /login; htmx requests get an HX-Redirect instead.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			s.toLogin(w, r)
			return
		}

		sess, err := s.deps.Auth.Session(ctx, c.Value)
		if err != nil {
			if !errors.Is(err, storage.ErrSessionNotFound) && !errors.Is(err, storage.ErrSessionExpired) {
				applog.FromContext(ctx).ErrorContext(ctx, "Session lookup failed",
					applog.FieldComponent, applog.ComponentSession,
					applog.FieldErrorType, applog.ErrorTypeDatabase,
					applog.FieldError, err)
			}
			s.clearCookie(w, sessionCookie)
			s.toLogin(w, r)
			return
		}

		ctx = context.WithValue(ctx, sessionKey{}, sess)
		ctx = athena.WithToken(ctx, sess.APIToken)
		ctx = services.WithActor(ctx, sess.UserEmail)
		ctx = applog.WithLogger(ctx, applog.FromContext(ctx).With(applog.FieldUserEmail, sess.UserEmail))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) toLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Status(http.StatusUnauthorized).Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	s.setCookie(w, name, "", -1)
}

// authForm is the content of the login and sign-up pages.
type authForm struct {
	Name  string
	Email string
	Error string
	Field string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "login", pageData{Title: "Sign in", Content: authForm{}})
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "signup", pageData{Title: "Create account", Content: authForm{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := services.LoginInput{Email: p.Get("email"), Password: p.GetRaw("password")}

	sess, err := s.deps.Auth.Login(r.Context(), in)
	if err != nil {
		s.authFailed(w, r, "login", authForm{Email: in.Email}, err)
		return
	}
	s.startSession(w, r, sess)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := services.SignupInput{Name: p.Get("name"), Email: p.Get("email"), Password: p.GetRaw("password")}

	sess, err := s.deps.Auth.Signup(r.Context(), in)
	if err != nil {
		s.authFailed(w, r, "signup", authForm{Name: in.Name, Email: in.Email}, err)
		return
	}
	s.startSession(w, r, sess)
}

// authFailed re-renders the form with the error next to the offending field.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, name string, form authForm, err error) {
	logOpError(r, applog.ComponentAuth, name, err)

	form.Error = userMessage(err)
	var verr *services.ValidationError
	var apiErr *athena.APIError
	switch {
	case errors.As(err, &verr):
		form.Field = verr.Field
	case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest):
		form.Error = "Invalid email or password"
		if d := apiErr.Detail(); name == "signup" && d != "" {
			form.Error = d
		}
	}

	s.renderPageStatus(w, r, name, statusFor(err), pageData{Title: pageTitle(name), Content: form})
}

func pageTitle(name string) string {
	if name == "signup" {
		return "Create account"
	}
	return "Sign in"
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess storage.Session) {
	s.setCookie(w, sessionCookie, sess.ID, int(s.opts.SessionTTL.Seconds()))
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/overview").Write(w)
		return
	}
	http.Redirect(w, r, "/overview", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.deps.Auth.Logout(r.Context(), c.Value); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Session delete failed",
				applog.FieldComponent, applog.ComponentSession, applog.FieldError, err)
		}
	}
	s.clearCookie(w, sessionCookie)
	s.toLoginAfterLogout(w, r)
}

func (s *Server) toLoginAfterLogout(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect("/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func navCollapsed(r *http.Request) bool {
	c, err := r.Cookie(navCookie)
	return err == nil && c.Value == "collapsed"
}

// handleNavToggle flips the sidebar state and sends the browser back.
func (s *Server) handleNavToggle(w http.ResponseWriter, r *http.Request) {
	if navCollapsed(r) {
		s.setCookie(w, navCookie, "expanded", 365*24*3600)
	} else {
		s.setCookie(w, navCookie, "collapsed", 365*24*3600)
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the same-origin path of the Referer, or /overview.
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/overview"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/overview"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
