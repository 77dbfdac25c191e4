package http

import (
	"net/http"

	"athena/internal/athena"
	applog "athena/internal/log"
	"athena/internal/services"
)

type settingsView struct {
	Profile  profileView
	Password passwordForm
	APIKey   apiKeyView
	Error    string
}

// profileView is the profile card: the form plus its select options.
type profileView struct {
	Form      profileForm
	Timezones []option
	Timeouts  []option
}

type profileForm struct {
	Profile athena.Profile
	Error   string
	Field   string
	Saved   bool
}

type passwordForm struct {
	Error string
	Field string
	Saved bool
}

// apiKeyView shows the masked key, or the full key right after it was issued.
type apiKeyView struct {
	Masked string
	New    string
	Error  string
}

type option struct {
	Value string
	Label string
}

var timezones = []option{
	{"utc-8", "UTC-8 (Pacific)"},
	{"utc-5", "UTC-5 (Eastern)"},
	{"utc+0", "UTC+0 (London)"},
	{"utc+7", "UTC+7 (Jakarta)"},
	{"utc+8", "UTC+8 (Singapore)"},
	{"utc+9", "UTC+9 (Tokyo)"},
}

var sessionTimeouts = []option{
	{"15", "15 minutes"},
	{"30", "30 minutes"},
	{"60", "1 hour"},
	{"120", "2 hours"},
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	v := settingsView{Profile: profileView{Timezones: timezones, Timeouts: sessionTimeouts}}
	p, err := s.deps.Settings.Profile(r.Context())
	if err != nil {
		logOpError(r, applog.ComponentApp, applog.OpRead, err)
		v.Error = userMessage(err)
	}
	v.Profile.Form = profileForm{Profile: p}
	v.APIKey = apiKeyView{Masked: services.MaskAPIKey(p.APIKey)}
	s.renderPage(w, r, "settings", pageData{Title: "Settings", Content: v})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := athena.Profile{
		Name:               p.Get("name"),
		Email:              p.Get("email"),
		Timezone:           p.Get("timezone"),
		SessionTimeout:     p.Get("session_timeout"),
		TwoFactorEnabled:   p.Bool("two_factor_enabled"),
		EmailNotifications: p.Bool("email_notifications"),
		ThreatAlerts:       p.Bool("threat_alerts"),
		WeeklyReport:       p.Bool("weekly_report"),
		AgentStatusAlerts:  p.Bool("agent_status_alerts"),
	}
	data := profileView{Timezones: timezones, Timeouts: sessionTimeouts}

	saved, err := s.deps.Settings.UpdateProfile(r.Context(), in)
	if err != nil {
		logOpError(r, applog.ComponentApp, applog.OpUpdate, err)
		data.Form = profileForm{Profile: in, Error: userMessage(err)}
		if verr, ok := asValidation(err); ok {
			data.Form.Field = verr.Field
		}
		s.writePartial(w, r, NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(data.Form.Error), "profile_form", data)
		return
	}
	data.Form = profileForm{Profile: saved, Saved: true}
	s.writePartial(w, r, NewHTMXResponse().TriggerSuccessNotification("Profile saved"), "profile_form", data)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	in := services.PasswordInput{Current: p.GetRaw("current_password"), New: p.GetRaw("new_password")}

	if err := s.deps.Settings.ChangePassword(r.Context(), in); err != nil {
		logOpError(r, applog.ComponentAuth, "change_password", err)
		form := passwordForm{Error: userMessage(err)}
		if verr, ok := asValidation(err); ok {
			form.Field = verr.Field
		}
		s.writePartial(w, r, NewHTMXResponse().Status(statusFor(err)).TriggerErrorNotification(form.Error), "password_form", form)
		return
	}
	s.writePartial(w, r, NewHTMXResponse().TriggerSuccessNotification("Password updated"), "password_form", passwordForm{Saved: true})
}

func (s *Server) handleRegenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := s.deps.Settings.RegenerateAPIKey(r.Context())
	if err != nil {
		s.failMutation(w, r, applog.ComponentAuth, "regenerate_api_key", err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "API key regenerated",
		applog.FieldComponent, applog.ComponentAuth)
	v := apiKeyView{Masked: services.MaskAPIKey(key), New: key}
	s.writePartial(w, r, NewHTMXResponse().TriggerSuccessNotification("New API key generated"), "api_key", v)
}
