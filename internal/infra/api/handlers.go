// Package api holds the JSON handlers behind the site's forms.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/internal/infra/database"
	"github.com/hkd-kulturverein/website/portal/i18n"
	"github.com/hkd-kulturverein/website/portal/middleware"
	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

const (
	maxBodyBytes  = 64 << 10
	maxNameLen    = 100
	maxEmailLen   = 254
	maxSubjectLen = 200
	maxMessageLen = 5000
)

type Handlers struct {
	repo   database.SubmissionRepository
	bundle *i18n.Bundle
	logger *zap.Logger
}

func NewHandlers(repo database.SubmissionRepository, bundle *i18n.Bundle, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{repo: repo, bundle: bundle, logger: logger}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *Handlers) Contact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "errors.badRequest", nil))
		return
	}

	v := newValidator(r)
	v.required("name", req.Name)
	v.maxLen("name", req.Name, maxNameLen)
	v.email("email", req.Email)
	v.maxLen("subject", req.Subject, maxSubjectLen)
	v.required("message", req.Message)
	v.maxLen("message", req.Message, maxMessageLen)
	if !v.ok() {
		v.write(w)
		return
	}

	store := i18n.FromContext(ctx)
	msg := &database.ContactMessage{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		ClientIP: ratelimiter.DefaultIdentifier(r),
	}
	if store != nil {
		msg.Lang = string(store.Language())
	}

	if err := h.repo.SaveContact(ctx, msg); err != nil {
		h.logger.Error("failed to save contact message",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, i18n.T(ctx, "errors.internal", nil))
		return
	}

	h.logger.Info("contact message received",
		zap.Int64("id", msg.ID),
		zap.String("lang", msg.Lang),
		zap.String("request_id", middleware.GetRequestID(ctx)))

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      msg.ID,
		"message": i18n.T(ctx, "contact.success", map[string]string{"name": msg.Name}),
	})
}

type newsletterRequest struct {
	Email string `json:"email"`
}

// Newsletter subscribes an address. Subscribing twice is not an error.
func (h *Handlers) Newsletter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req newsletterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "errors.badRequest", nil))
		return
	}

	v := newValidator(r)
	v.email("email", req.Email)
	if !v.ok() {
		v.write(w)
		return
	}

	sub := &database.Subscriber{Email: strings.TrimSpace(req.Email)}
	if store := i18n.FromContext(ctx); store != nil {
		sub.Lang = string(store.Language())
	}

	err := h.repo.Subscribe(ctx, sub)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		writeJSON(w, http.StatusOK, map[string]string{
			"message": i18n.T(ctx, "newsletter.alreadySubscribed", nil),
		})
	case err != nil:
		h.logger.Error("failed to subscribe",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, i18n.T(ctx, "errors.internal", nil))
	default:
		writeJSON(w, http.StatusCreated, map[string]string{
			"message": i18n.T(ctx, "newsletter.success", nil),
		})
	}
}

type languageRequest struct {
	Lang string `json:"lang"`
}

// Language switches the visitor's language and remembers it in a cookie.
func (h *Handlers) Language(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(ctx, "errors.badRequest", nil))
		return
	}

	store := i18n.FromContext(ctx)
	if store == nil {
		writeError(w, http.StatusInternalServerError, i18n.T(ctx, "errors.internal", nil))
		return
	}

	lang, _ := h.bundle.Registry().Parse(req.Lang)
	if lang == "" {
		lang = i18n.Lang(strings.TrimSpace(req.Lang))
	}
	if err := store.SetLanguage(lang); err != nil {
		if errors.Is(err, i18n.ErrUnsupportedLanguage) {
			writeError(w, http.StatusBadRequest,
				store.T("errors.unsupportedLanguage", map[string]string{"lang": req.Lang}))
			return
		}
		h.logger.Error("failed to switch language", zap.String("lang", string(lang)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, store.T("errors.internal", nil))
		return
	}

	name := store.T("language.names."+string(lang), nil)
	writeJSON(w, http.StatusOK, map[string]string{
		"lang":    string(lang),
		"message": store.T("language.switched", map[string]string{"language": name}),
	})
}

// Dictionary serves a language's dictionary for client-side rendering.
// Unknown languages get the default dictionary.
func (h *Handlers) Dictionary(w http.ResponseWriter, r *http.Request) {
	reg := h.bundle.Registry()
	lang := reg.Normalize(chi.URLParam(r, "lang"))

	w.Header().Set("Content-Language", string(lang))
	writeJSON(w, http.StatusOK, h.bundle.Dictionary(lang))
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, i18n.T(r.Context(), "errors.notFound", nil))
}

type validator struct {
	r      *http.Request
	fields map[string]string
}

func newValidator(r *http.Request) *validator {
	return &validator{r: r, fields: map[string]string{}}
}

func (v *validator) label(field string) string {
	return i18n.T(v.r.Context(), "fields."+field, nil)
}

func (v *validator) fail(field, key string, params map[string]string) {
	if _, exists := v.fields[field]; exists {
		return
	}
	v.fields[field] = i18n.T(v.r.Context(), key, params)
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "validation.required", map[string]string{"field": v.label(field)})
	}
}

func (v *validator) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > limit {
		v.fail(field, "validation.tooLong", map[string]string{
			"field": v.label(field),
			"max":   strconv.Itoa(limit),
		})
	}
}

func (v *validator) email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		v.required(field, value)
		return
	}
	if len(value) > maxEmailLen {
		v.maxLen(field, value, maxEmailLen)
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.fail(field, "validation.email", nil)
	}
}

func (v *validator) ok() bool {
	return len(v.fields) == 0
}

func (v *validator) write(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":  i18n.T(v.r.Context(), "errors.badRequest", nil),
		"fields": v.fields,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// Unknown fields are ignored: forms may carry honeypot or tracking inputs.
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
