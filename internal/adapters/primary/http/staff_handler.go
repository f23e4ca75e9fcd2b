package http

import (
	"log/slog"
	"net/http"

	"github.com/gamemod/support-desk/internal/adapters/primary/dto"
	"github.com/gamemod/support-desk/internal/adapters/primary/validation"
	"github.com/gamemod/support-desk/internal/auth"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/infrastructure/metrics"
	"github.com/go-chi/chi/v5"
)

// StaffHandler handles the dashboard settings and staff session endpoints
type StaffHandler struct {
	settingsService ports.SettingsService
	adminKey        *auth.AdminKey
	tokens          *auth.TokenManager
	errorHandler    *ErrorHandler
	logger          *slog.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(
	settingsService ports.SettingsService,
	adminKey *auth.AdminKey,
	tokens *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *StaffHandler {
	return &StaffHandler{
		settingsService: settingsService,
		adminKey:        adminKey,
		tokens:          tokens,
		errorHandler:    errorHandler,
		logger:          logger.With("handler", "staff"),
	}
}

// RegisterRoutes registers the staff routes. adminGate wraps settings
// updates; sessionLimit, when non-nil, wraps the login endpoint.
func (h *StaffHandler) RegisterRoutes(r chi.Router, adminGate, sessionLimit func(http.Handler) http.Handler) {
	r.Get("/settings", h.HandleGetSettings)
	r.With(adminGate).Put("/settings", h.HandleUpdateSettings)

	session := r.With()
	if sessionLimit != nil {
		session = r.With(sessionLimit)
	}
	session.Post("/session", h.HandleCreateSession)
}

// ThemeRequest mirrors domain.ThemeSettings with presence tracking.
type ThemeRequest struct {
	Primary             *string `json:"primary"`
	Surface             *string `json:"surface"`
	SurfaceMuted        *string `json:"surfaceMuted"`
	SurfaceSubtle       *string `json:"surfaceSubtle"`
	BackgroundAccentOne *string `json:"backgroundAccentOne"`
	BackgroundAccentTwo *string `json:"backgroundAccentTwo"`
}

func (t *ThemeRequest) validate(v *validation.Validator) {
	v.Present("theme.primary", t.Primary != nil).
		Present("theme.surface", t.Surface != nil).
		Present("theme.surfaceMuted", t.SurfaceMuted != nil).
		Present("theme.surfaceSubtle", t.SurfaceSubtle != nil).
		Present("theme.backgroundAccentOne", t.BackgroundAccentOne != nil).
		Present("theme.backgroundAccentTwo", t.BackgroundAccentTwo != nil)
}

func (t *ThemeRequest) settings() *domain.ThemeSettings {
	return &domain.ThemeSettings{
		Primary:             *t.Primary,
		Surface:             *t.Surface,
		SurfaceMuted:        *t.SurfaceMuted,
		SurfaceSubtle:       *t.SurfaceSubtle,
		BackgroundAccentOne: *t.BackgroundAccentOne,
		BackgroundAccentTwo: *t.BackgroundAccentTwo,
	}
}

// SiteRequest mirrors domain.SiteSettings with presence tracking.
type SiteRequest struct {
	BrandLabel      *string `json:"brandLabel"`
	BrandHeading    *string `json:"brandHeading"`
	HeaderNote      *string `json:"headerNote"`
	HeaderGreeting  *string `json:"headerGreeting"`
	GuildName       *string `json:"guildName"`
	ShowGuildCard   *bool   `json:"showGuildCard"`
	ShowTopicsPanel *bool   `json:"showTopicsPanel"`
}

func (s *SiteRequest) validate(v *validation.Validator) {
	v.Present("site.brandLabel", s.BrandLabel != nil).
		Present("site.brandHeading", s.BrandHeading != nil).
		Present("site.headerNote", s.HeaderNote != nil).
		Present("site.headerGreeting", s.HeaderGreeting != nil).
		Present("site.guildName", s.GuildName != nil).
		Present("site.showGuildCard", s.ShowGuildCard != nil).
		Present("site.showTopicsPanel", s.ShowTopicsPanel != nil)
}

func (s *SiteRequest) settings() *domain.SiteSettings {
	return &domain.SiteSettings{
		BrandLabel:      *s.BrandLabel,
		BrandHeading:    *s.BrandHeading,
		HeaderNote:      *s.HeaderNote,
		HeaderGreeting:  *s.HeaderGreeting,
		GuildName:       *s.GuildName,
		ShowGuildCard:   *s.ShowGuildCard,
		ShowTopicsPanel: *s.ShowTopicsPanel,
	}
}

// UpdateSettingsRequest replaces theme and/or site wholesale.
type UpdateSettingsRequest struct {
	Theme *ThemeRequest `json:"theme"`
	Site  *SiteRequest  `json:"site"`
}

// Validate requires every field of a supplied sub-object. Emptiness of
// the whole request is left to the settings service.
func (r *UpdateSettingsRequest) Validate() error {
	v := validation.NewValidator()
	if r.Theme != nil {
		r.Theme.validate(v)
	}
	if r.Site != nil {
		r.Site.validate(v)
	}
	return v.Err()
}

// Params converts a validated request into service parameters.
func (r *UpdateSettingsRequest) Params() ports.UpdateSettingsParams {
	var params ports.UpdateSettingsParams
	if r.Theme != nil {
		params.Theme = r.Theme.settings()
	}
	if r.Site != nil {
		params.Site = r.Site.settings()
	}
	return params
}

// CreateSessionRequest is the staff login form.
type CreateSessionRequest struct {
	Username string `json:"username"`
	AdminKey string `json:"adminKey"`
}

// Validate validates the session request
func (r *CreateSessionRequest) Validate() error {
	return validation.NewValidator().
		Required("username", r.Username, "Username is required").
		Required("adminKey", r.AdminKey, "Admin key is required").
		Err()
}

// SessionResponse carries a staff bearer token.
type SessionResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
}

// HandleGetSettings handles GET /staff/settings
func (h *StaffHandler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, dto.FromSettings(settings))
}

// HandleUpdateSettings handles PUT /staff/settings
func (h *StaffHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[UpdateSettingsRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	settings, err := h.settingsService.UpdateSettings(r.Context(), req.Params())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "staff settings updated",
		"theme", req.Theme != nil,
		"site", req.Site != nil,
	)

	WriteOK(w, dto.FromSettings(settings))
}

// HandleCreateSession handles POST /staff/session
func (h *StaffHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateSessionRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	if err := h.adminKey.Verify(req.AdminKey); err != nil {
		metrics.AdminAuthFailures.WithLabelValues("session").Inc()
		h.errorHandler.Handle(w, r, err)
		return
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.Username)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "staff session issued", "username", req.Username)

	WriteCreated(w, SessionResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresAt: dto.FormatTime(expiresAt),
	})
}
