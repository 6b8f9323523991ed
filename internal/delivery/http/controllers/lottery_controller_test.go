package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"giftlottery/internal/delivery/http/helpers"
	"giftlottery/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger so handler tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeLotteryService implements domain.LotteryService for handler tests.
type fakeLotteryService struct {
	createResult     string
	createErr        error
	lastCreateInput  domain.CreateLotteryInput
	statusResult     *domain.LotteryStatus
	statusErr        error
	assignmentResult *domain.Assignment
	assignmentErr    error
	markViewedErr    error
	markViewedCalls  int
	loginResult      string
	loginErr         error
	deleteResult     bool
	deleteErr        error
	lastEventURL     string
	lastName         string
}

func (f *fakeLotteryService) Create(ctx context.Context, input domain.CreateLotteryInput) (string, error) {
	f.lastCreateInput = input
	return f.createResult, f.createErr
}

func (f *fakeLotteryService) Status(ctx context.Context, eventURL string) (*domain.LotteryStatus, error) {
	f.lastEventURL = eventURL
	return f.statusResult, f.statusErr
}

func (f *fakeLotteryService) GetAssignment(ctx context.Context, name, eventURL string) (*domain.Assignment, error) {
	f.lastName = name
	f.lastEventURL = eventURL
	return f.assignmentResult, f.assignmentErr
}

func (f *fakeLotteryService) MarkViewed(ctx context.Context, name, eventURL string) (bool, error) {
	f.markViewedCalls++
	return f.markViewedErr == nil, f.markViewedErr
}

func (f *fakeLotteryService) VerifyAdmin(ctx context.Context, eventURL, username, password string) (bool, error) {
	return f.loginErr == nil, f.loginErr
}

func (f *fakeLotteryService) AdminLogin(ctx context.Context, eventURL, username, password string) (string, error) {
	f.lastEventURL = eventURL
	return f.loginResult, f.loginErr
}

func (f *fakeLotteryService) Delete(ctx context.Context, eventURL, username, password string) (bool, error) {
	f.lastEventURL = eventURL
	return f.deleteResult, f.deleteErr
}

func decodeEnvelope(t *testing.T, body io.Reader) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope
}

func TestLotteryController_Create(t *testing.T) {
	validBody := `{
		"event_name": "Office Christmas",
		"admin_username": "organizer",
		"admin_password": "hunter2",
		"participants": ["Alice", "Bob", "Carol"]
	}`

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       validBody,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed json",
			body:       `{"event_name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "too few participants",
			body:       `{"event_name": "X", "admin_username": "a", "admin_password": "b", "participants": ["Alice", "Bob"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service rejects input",
			body:       validBody,
			serviceErr: domain.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "infeasible family partition",
			body:       validBody,
			serviceErr: domain.ErrAssignmentInfeasible,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeInfeasible,
		},
		{
			name:       "unexpected failure",
			body:       validBody,
			serviceErr: assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLotteryService{createResult: "aaaabbbbccccdddd", createErr: tt.serviceErr}
			ctrl := NewLotteryController(testLogger, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			ctrl.Create(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			envelope := decodeEnvelope(t, rec.Body)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			require.Nil(t, envelope.Error)
			data, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "aaaabbbbccccdddd", data["event_url"])
		})
	}
}

func TestLotteryController_Status(t *testing.T) {
	svc := &fakeLotteryService{
		statusResult: &domain.LotteryStatus{
			Exists:           true,
			EventURL:         "aaaabbbbccccdddd",
			Participants:     []string{"Alice", "Bob", "Carol"},
			ParticipantCount: 3,
			ViewedBy:         []string{"Alice"},
			ViewedCount:      1,
		},
	}
	ctrl := NewLotteryController(testLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "http://test/api/events/aaaabbbbccccdddd/status", nil)
	req.SetPathValue("eventUrl", "aaaabbbbccccdddd")
	rec := httptest.NewRecorder()
	ctrl.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aaaabbbbccccdddd", svc.lastEventURL)
	envelope := decodeEnvelope(t, rec.Body)
	require.Nil(t, envelope.Error)
}

func TestLotteryController_Draw(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		assignment      *domain.Assignment
		assignmentErr   error
		markViewedErr   error
		wantStatus      int
		wantCode        string
		wantMarkCalled  bool
	}{
		{
			name:           "success marks viewed",
			body:           `{"name": "Alice"}`,
			assignment:     &domain.Assignment{Giver: "Alice", Recipient: "Bob"},
			wantStatus:     http.StatusOK,
			wantMarkCalled: true,
		},
		{
			name:           "mark viewed failure never hides the assignment",
			body:           `{"name": "Alice"}`,
			assignment:     &domain.Assignment{Giver: "Alice", Recipient: "Bob"},
			markViewedErr:  assert.AnError,
			wantStatus:     http.StatusOK,
			wantMarkCalled: true,
		},
		{
			name:       "missing name",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:          "unknown participant",
			body:          `{"name": "Mallory"}`,
			assignmentErr: domain.ErrNotFound,
			wantStatus:    http.StatusNotFound,
			wantCode:      helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLotteryService{
				assignmentResult: tt.assignment,
				assignmentErr:    tt.assignmentErr,
				markViewedErr:    tt.markViewedErr,
			}
			ctrl := NewLotteryController(testLogger, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/draw", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			ctrl.Draw(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			envelope := decodeEnvelope(t, rec.Body)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			} else {
				data, ok := envelope.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Bob", data["recipient"])
			}
			if tt.wantMarkCalled {
				assert.Equal(t, 1, svc.markViewedCalls)
			} else {
				assert.Zero(t, svc.markViewedCalls)
			}
		})
	}
}

func TestLotteryController_Draw_PathValueOverridesBody(t *testing.T) {
	svc := &fakeLotteryService{assignmentResult: &domain.Assignment{Giver: "Alice", Recipient: "Bob"}}
	ctrl := NewLotteryController(testLogger, svc)

	req := httptest.NewRequest(http.MethodPost, "http://test/api/events/frompath/draw",
		bytes.NewBufferString(`{"name": "Alice", "event_url": "frombody"}`))
	req.SetPathValue("eventUrl", "frompath")
	rec := httptest.NewRecorder()
	ctrl.Draw(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frompath", svc.lastEventURL)
}

func TestLotteryController_AdminLogin(t *testing.T) {
	t.Run("issues a token", func(t *testing.T) {
		svc := &fakeLotteryService{loginResult: "jwt-token"}
		ctrl := NewLotteryController(testLogger, svc)

		req := httptest.NewRequest(http.MethodPost, "http://test/api/events/aaaabbbbccccdddd/admin/login",
			bytes.NewBufferString(`{"username": "organizer", "password": "hunter2"}`))
		req.SetPathValue("eventUrl", "aaaabbbbccccdddd")
		rec := httptest.NewRecorder()
		ctrl.AdminLogin(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data, ok := envelope.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "jwt-token", data["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := &fakeLotteryService{loginErr: domain.ErrAuthFailed}
		ctrl := NewLotteryController(testLogger, svc)

		req := httptest.NewRequest(http.MethodPost, "http://test/api/events/aaaabbbbccccdddd/admin/login",
			bytes.NewBufferString(`{"username": "organizer", "password": "wrong"}`))
		req.SetPathValue("eventUrl", "aaaabbbbccccdddd")
		rec := httptest.NewRecorder()
		ctrl.AdminLogin(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)
	})
}

func TestLotteryController_Delete(t *testing.T) {
	body := `{"username": "organizer", "password": "hunter2"}`

	tests := []struct {
		name       string
		deleted    bool
		deleteErr  error
		wantStatus int
		wantCode   string
	}{
		{name: "deleted", deleted: true, wantStatus: http.StatusOK},
		{name: "wrong credentials or missing event", wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "unexpected failure", deleteErr: assert.AnError, wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLotteryService{deleteResult: tt.deleted, deleteErr: tt.deleteErr}
			ctrl := NewLotteryController(testLogger, svc)

			req := httptest.NewRequest(http.MethodDelete, "http://test/api/events/aaaabbbbccccdddd", bytes.NewBufferString(body))
			req.SetPathValue("eventUrl", "aaaabbbbccccdddd")
			rec := httptest.NewRecorder()
			ctrl.Delete(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			envelope := decodeEnvelope(t, rec.Body)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			data, ok := envelope.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, true, data["deleted"])
		})
	}
}
