package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"giftlottery/internal/delivery/http/helpers"
	"giftlottery/internal/domain"
)

// OpenRecoveryRequest is the request body for POST /api/events/{eventUrl}/recovery.
type OpenRecoveryRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (o OpenRecoveryRequest) Validate() []string {
	if o.Email == "" {
		return []string{"email is required"}
	}
	return nil
}

// OpenRecoveryResponse is the success payload for opening a recovery session.
type OpenRecoveryResponse struct {
	RecoveryURL string `json:"recovery_url"`
}

// RecoveryClickRequest is the request body for POST /api/recovery/{recoveryUrl}/click.
type RecoveryClickRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c RecoveryClickRequest) Validate() []string {
	if c.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

type RecoveryController struct {
	Logger  *slog.Logger
	Service domain.RecoveryService
}

func NewRecoveryController(logger *slog.Logger, svc domain.RecoveryService) *RecoveryController {
	return &RecoveryController{
		Logger:  logger,
		Service: svc,
	}
}

// Open godoc
// @Summary Open a recovery session
// @Description Starts a new elimination session for a participant who forgot their assignment. The reveal will go to the given email once everyone else has confirmed.
// @Tags recovery
// @Accept json
// @Produce json
// @Param eventUrl path string true "Event URL token"
// @Param body body OpenRecoveryRequest true "Destination email for the reveal"
// @Success 201 {object} helpers.APIResponse "data contains recovery_url"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventUrl}/recovery [post]
func (c *RecoveryController) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRecoveryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	recoveryURL, err := c.Service.Open(r.Context(), r.PathValue("eventUrl"), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "email is required")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching event")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, OpenRecoveryResponse{RecoveryURL: recoveryURL})
}

// View godoc
// @Summary View a recovery session
// @Description Returns the participant list and the aggregate click count. Which names were clicked is never exposed.
// @Tags recovery
// @Produce json
// @Param recoveryUrl path string true "Recovery URL token"
// @Success 200 {object} helpers.APIResponse "data contains the session view"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/recovery/{recoveryUrl} [get]
func (c *RecoveryController) View(w http.ResponseWriter, r *http.Request) {
	view, err := c.Service.View(r.Context(), r.PathValue("recoveryUrl"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching recovery session")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// Click godoc
// @Summary Register a "not me" confirmation
// @Description Records that the named participant confirmed seeing their assignment. At N−1 confirmations the missing participant is deduced and the reveal email dispatched; the response never carries the deduced name.
// @Tags recovery
// @Accept json
// @Produce json
// @Param recoveryUrl path string true "Recovery URL token"
// @Param body body RecoveryClickRequest true "Clicked participant name"
// @Success 200 {object} helpers.APIResponse "data contains click_count, total_participants, completed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or name_not_in_event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: duplicate_click or already_completed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/recovery/{recoveryUrl}/click [post]
func (c *RecoveryController) Click(w http.ResponseWriter, r *http.Request) {
	var req RecoveryClickRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Service.RegisterClick(r.Context(), r.PathValue("recoveryUrl"), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching recovery session")
		case errors.Is(err, domain.ErrAlreadyCompleted):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeAlreadyCompleted, "recovery session already completed")
		case errors.Is(err, domain.ErrNameNotInEvent):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeNameNotInEvent, "name is not a participant of this event")
		case errors.Is(err, domain.ErrDuplicateClick):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateClick, "name already clicked in this session")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "name is required")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// Resend godoc
// @Summary Resend the reveal email
// @Description Re-dispatches the reveal for a Completed session, re-deriving the missing name from the stored clicks. Admin token required.
// @Tags recovery
// @Produce json
// @Security BearerAuth
// @Param recoveryUrl path string true "Recovery URL token"
// @Success 200 {object} helpers.APIResponse "data contains resent=true"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (session not completed)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/recovery/{recoveryUrl}/resend [post]
func (c *RecoveryController) Resend(w http.ResponseWriter, r *http.Request) {
	err := c.Service.ResendReveal(r.Context(), r.PathValue("recoveryUrl"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching recovery session")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "session is not completed")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"resent": true})
}

// Sessions godoc
// @Summary List recovery sessions for an event
// @Description Admin-only: per-session summaries with click counts.
// @Tags recovery
// @Produce json
// @Security BearerAuth
// @Param eventUrl path string true "Event URL token"
// @Success 200 {object} helpers.APIResponse "data contains the session summaries"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventUrl}/recovery-sessions [get]
func (c *RecoveryController) Sessions(w http.ResponseWriter, r *http.Request) {
	summaries, err := c.Service.SessionsForEvent(r.Context(), r.PathValue("eventUrl"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching event")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, summaries)
}
