package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"giftlottery/internal/delivery/http/helpers"
	"giftlottery/internal/domain"
)

// CreateLotteryRequest is the request body for POST /api/events.
type CreateLotteryRequest struct {
	EventName     string            `json:"event_name"`
	AdminUsername string            `json:"admin_username"`
	AdminPassword string            `json:"admin_password"`
	Participants  []string          `json:"participants"`
	Families      map[string]string `json:"families"`
	FamilyMode    bool              `json:"family_mode"`
	AdminEmail    string            `json:"admin_email"`
}

// Validate implements Validator. Returns error messages for required fields.
func (c CreateLotteryRequest) Validate() []string {
	var errs []string
	if c.EventName == "" {
		errs = append(errs, "event_name is required")
	}
	if c.AdminUsername == "" {
		errs = append(errs, "admin_username is required")
	}
	if c.AdminPassword == "" {
		errs = append(errs, "admin_password is required")
	}
	if len(c.Participants) < 3 {
		errs = append(errs, "at least 3 participants are required")
	}
	return errs
}

// CreateLotteryResponse is the success payload for POST /api/events.
type CreateLotteryResponse struct {
	EventURL string `json:"event_url"`
}

// DrawRequest is the request body for POST /api/draw.
type DrawRequest struct {
	Name     string `json:"name"`
	EventURL string `json:"event_url"`
}

// Validate implements Validator.
func (d DrawRequest) Validate() []string {
	if d.Name == "" {
		return []string{"name is required"}
	}
	return nil
}

// AdminLoginRequest is the request body for POST /api/events/{eventUrl}/admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (a AdminLoginRequest) Validate() []string {
	var errs []string
	if a.Username == "" {
		errs = append(errs, "username is required")
	}
	if a.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// AdminLoginResponse is the success payload for the admin login endpoint.
type AdminLoginResponse struct {
	Token string `json:"token"`
}

// DeleteLotteryRequest is the request body for DELETE /api/events/{eventUrl}.
type DeleteLotteryRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LotteryController struct {
	Logger  *slog.Logger
	Service domain.LotteryService
}

func NewLotteryController(logger *slog.Logger, svc domain.LotteryService) *LotteryController {
	return &LotteryController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a gift lottery
// @Description Computes the assignment for the given participants and persists the event. Returns the opaque event URL token. When admin_email is set, the organizer credentials are mailed best-effort.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateLotteryRequest true "Event data"
// @Success 201 {object} helpers.APIResponse "data contains event_url"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or assignment_infeasible"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [post]
func (c *LotteryController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLotteryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	eventURL, err := c.Service.Create(r.Context(), domain.CreateLotteryInput{
		EventName:     req.EventName,
		AdminUsername: req.AdminUsername,
		AdminPassword: req.AdminPassword,
		Participants:  req.Participants,
		Families:      req.Families,
		FamilyMode:    req.FamilyMode,
		AdminEmail:    req.AdminEmail,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid event data")
		case errors.Is(err, domain.ErrAssignmentInfeasible):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeInfeasible, "could not construct a valid distribution, check the family partition")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateLotteryResponse{EventURL: eventURL})
}

// Status godoc
// @Summary Lottery status
// @Description Read-only projection: participant names and who already viewed. Never errors; a missing event yields exists=false with zero counts. Without an eventUrl path value the most recent active event is used.
// @Tags events
// @Produce json
// @Param eventUrl path string false "Event URL token"
// @Success 200 {object} helpers.APIResponse "data contains the status projection"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventUrl}/status [get]
func (c *LotteryController) Status(w http.ResponseWriter, r *http.Request) {
	status, err := c.Service.Status(r.Context(), r.PathValue("eventUrl"))
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}

// Draw godoc
// @Summary Draw an assignment
// @Description Returns the caller's recipient, matching the name case-insensitively, and marks the participant as having viewed (idempotent; the realtime broadcast fires only on the first call). Without event_url the most recent active event is used.
// @Tags events
// @Accept json
// @Produce json
// @Param draw body DrawRequest true "Participant name and optional event URL"
// @Success 200 {object} helpers.APIResponse "data contains giver, recipient, family"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/draw [post]
func (c *LotteryController) Draw(w http.ResponseWriter, r *http.Request) {
	var req DrawRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if eventURL := r.PathValue("eventUrl"); eventURL != "" {
		req.EventURL = eventURL
	}

	assignment, err := c.Service.GetAssignment(r.Context(), req.Name, req.EventURL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "name is required")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching event or participant")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}

	if _, err := c.Service.MarkViewed(r.Context(), req.Name, req.EventURL); err != nil {
		// The assignment is already resolved; a failed viewed-flip must not
		// hide it from the participant.
		c.Logger.WarnContext(r.Context(), "mark viewed failed", "path", r.URL.Path, "err", err)
	}

	helpers.WriteJSONSuccess(w, http.StatusOK, assignment)
}

// AdminLogin godoc
// @Summary Admin login
// @Description Verifies the organizer credentials for the event and issues a session token for admin-scoped reads and the admin realtime room.
// @Tags admin
// @Accept json
// @Produce json
// @Param eventUrl path string true "Event URL token"
// @Param credentials body AdminLoginRequest true "Admin credentials"
// @Success 200 {object} helpers.APIResponse "data contains token"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventUrl}/admin/login [post]
func (c *LotteryController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, err := c.Service.AdminLogin(r.Context(), r.PathValue("eventUrl"), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid credentials")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AdminLoginResponse{Token: token})
}

// Delete godoc
// @Summary Delete a lottery
// @Description Hard-deletes the event and everything it owns after verifying the credentials in the body. Bad credentials and a missing event both yield 404.
// @Tags admin
// @Accept json
// @Produce json
// @Param eventUrl path string true "Event URL token"
// @Param credentials body DeleteLotteryRequest true "Admin credentials"
// @Success 200 {object} helpers.APIResponse "data contains deleted=true"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventUrl} [delete]
func (c *LotteryController) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteLotteryRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	deleted, err := c.Service.Delete(r.Context(), r.PathValue("eventUrl"), req.Username, req.Password)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	if !deleted {
		// Deliberately the same answer for bad credentials and unknown event.
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no matching event")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}
