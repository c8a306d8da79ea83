package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/checkmaster/backend/internal/application/conference"
	"github.com/checkmaster/backend/internal/application/identity"
	domainconf "github.com/checkmaster/backend/internal/domain/conference"
	domainid "github.com/checkmaster/backend/internal/domain/identity"
	"github.com/checkmaster/backend/internal/domain/shared"
	"github.com/checkmaster/backend/internal/infrastructure/auth"
	"github.com/checkmaster/backend/internal/interfaces/http/dto"
	"github.com/checkmaster/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func testActor(role domainid.Role) *domainid.User {
	u := &domainid.User{Name: "Ana Conferente", Username: "ana", Role: role}
	u.ID = uuid.New()
	return u
}

// withActor simulates JWT authentication followed by LoadActor
func withActor(actor *domainid.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ActorKey, actor)
			c.Set(middleware.JWTUserIDKey, actor.ID.String())
		}
		c.Next()
	}
}

func newEngine(actor *domainid.User) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), withActor(actor))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{"duplicate invoice", shared.NewDomainError(shared.CodeDuplicateInvoice, "dup"), http.StatusConflict, shared.CodeDuplicateInvoice},
		{"wrapped not found", errors.Join(errors.New("lookup"), shared.ErrNotFound), http.StatusNotFound, shared.CodeNotFound},
		{"insufficient permission", shared.ErrInsufficientPermission, http.StatusForbidden, shared.CodeInsufficientPermission},
		{"no active batch", shared.ErrNoActiveBatch, http.StatusConflict, shared.CodeNoActiveBatch},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, shared.CodeInvalidState},
		{"unknown error", errors.New("disk full"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(nil)
			h := &BaseHandler{}
			r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(r, http.MethodGet, "/x", "")

			assert.Equal(t, tt.status, w.Code)
			resp := decodeBody(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	r := newEngine(nil)
	h := &BaseHandler{}
	r.GET("/x", func(c *gin.Context) { h.HandleError(c, errors.New("pq: password authentication failed")) })

	w := doJSON(r, http.MethodGet, "/x", "")

	assert.NotContains(t, w.Body.String(), "pq:")
}

func conferenceEngine(ws *MockWorkspace, hist *MockHistory, actor *domainid.User) *gin.Engine {
	h := NewConferenceHandler(ws, hist, 1024)
	r := newEngine(actor)
	g := r.Group("/conference")
	g.GET("/workspace", h.GetWorkspace)
	g.POST("/staging", h.StageInvoices)
	g.DELETE("/staging/:access_key", h.RemoveStaged)
	g.POST("/batches", h.StartConference)
	g.POST("/active/scans", h.Scan)
	g.POST("/active/items/:item_id/reset", h.ResetItem)
	g.POST("/active/approve", h.Approve)
	g.DELETE("/active", h.Discard)
	g.POST("/paused/:id/resume", h.Resume)
	g.GET("/history", h.ListHistory)
	g.GET("/history/:id/report", h.Report)
	return r
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, content := range files {
		part, err := mw.CreateFormFile(UploadField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestConferenceHandler_StageInvoices(t *testing.T) {
	ws := new(MockWorkspace)
	r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))

	ws.On("StageInvoices", mock.Anything, mock.MatchedBy(func(docs []conference.UploadedDocument) bool {
		return len(docs) == 1 && docs[0].Name == "nfe.xml" && string(docs[0].Content) == "<nfeProc/>"
	})).Return(&conference.StageResult{Duplicates: []string{}}, nil)

	body, contentType := multipartBody(t, map[string]string{"nfe.xml": "<nfeProc/>"})
	req := httptest.NewRequest(http.MethodPost, "/conference/staging", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	ws.AssertExpectations(t)
}

func TestConferenceHandler_StageInvoices_Rejections(t *testing.T) {
	t.Run("not multipart", func(t *testing.T) {
		r := conferenceEngine(new(MockWorkspace), new(MockHistory), testActor(domainid.RoleConferente))
		w := doJSON(r, http.MethodPost, "/conference/staging", `{"files":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("file over the limit", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))

		body, contentType := multipartBody(t, map[string]string{"big.xml": string(bytes.Repeat([]byte("x"), 2048))})
		req := httptest.NewRequest(http.MethodPost, "/conference/staging", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		ws.AssertNotCalled(t, "StageInvoices", mock.Anything, mock.Anything)
	})
}

func TestConferenceHandler_StartConference_UsesActor(t *testing.T) {
	ws := new(MockWorkspace)
	actor := testActor(domainid.RoleConferente)
	r := conferenceEngine(ws, new(MockHistory), actor)

	ws.On("StartConference", mock.Anything, domainconf.Operator{ID: actor.ID, Name: actor.Name}).
		Return(&conference.BatchResponse{ID: uuid.New(), Status: "OPEN"}, nil)

	w := doJSON(r, http.MethodPost, "/conference/batches", "")

	assert.Equal(t, http.StatusCreated, w.Code)
	ws.AssertExpectations(t)
}

func TestConferenceHandler_StartConference_Unauthenticated(t *testing.T) {
	r := conferenceEngine(new(MockWorkspace), new(MockHistory), nil)

	w := doJSON(r, http.MethodPost, "/conference/batches", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConferenceHandler_Scan(t *testing.T) {
	t.Run("default quantity", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
		ws.On("Scan", mock.Anything, conference.ScanRequest{Identifier: "7891234567895"}).
			Return(&conference.ScanResponse{}, nil)

		w := doJSON(r, http.MethodPost, "/conference/active/scans", `{"identifier":"7891234567895"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		ws.AssertExpectations(t)
	})

	t.Run("explicit quantity", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
		ws.On("Scan", mock.Anything, mock.MatchedBy(func(req conference.ScanRequest) bool {
			return req.Quantity != nil && req.Quantity.Equal(decimal.RequireFromString("2.5"))
		})).Return(&conference.ScanResponse{}, nil)

		w := doJSON(r, http.MethodPost, "/conference/active/scans", `{"identifier":"ABC-1","quantity":"2.5"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		ws.AssertExpectations(t)
	})

	t.Run("zero quantity fails validation", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))

		w := doJSON(r, http.MethodPost, "/conference/active/scans", `{"identifier":"ABC-1","quantity":"0"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "quantity", resp.Error.Details[0].Field)
		ws.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
	})

	t.Run("missing identifier", func(t *testing.T) {
		r := conferenceEngine(new(MockWorkspace), new(MockHistory), testActor(domainid.RoleConferente))

		w := doJSON(r, http.MethodPost, "/conference/active/scans", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
		ws.On("Scan", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeItemNotFound, "No item matches 999"))

		w := doJSON(r, http.MethodPost, "/conference/active/scans", `{"identifier":"999"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, shared.CodeItemNotFound, decodeBody(t, w).Error.Code)
	})
}

func TestConferenceHandler_ResetItem_InvalidID(t *testing.T) {
	ws := new(MockWorkspace)
	r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))

	w := doJSON(r, http.MethodPost, "/conference/active/items/not-a-uuid/reset", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ws.AssertNotCalled(t, "ResetItem", mock.Anything, mock.Anything)
}

func TestConferenceHandler_Approve(t *testing.T) {
	ws := new(MockWorkspace)
	r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
	ws.On("Approve", mock.Anything, conference.ApproveRequest{
		SupervisorUsername: "maria",
		SupervisorPassword: "secret",
		Justification:      "",
	}).Return(nil, shared.ErrJustificationRequired)

	w := doJSON(r, http.MethodPost, "/conference/active/approve",
		`{"supervisor_username":"maria","supervisor_password":"secret"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeJustificationRequired, decodeBody(t, w).Error.Code)
}

func TestConferenceHandler_Resume(t *testing.T) {
	id := uuid.New()

	t.Run("empty body is unconfirmed", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
		ws.On("Resume", mock.Anything, id, false).Return(nil, shared.ErrConfirmationRequired)

		w := doJSON(r, http.MethodPost, "/conference/paused/"+id.String()+"/resume", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, shared.CodeConfirmationRequired, decodeBody(t, w).Error.Code)
	})

	t.Run("confirmed", func(t *testing.T) {
		ws := new(MockWorkspace)
		r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
		ws.On("Resume", mock.Anything, id, true).Return(&conference.BatchResponse{ID: id, Status: "OPEN"}, nil)

		w := doJSON(r, http.MethodPost, "/conference/paused/"+id.String()+"/resume", `{"confirm":true}`)

		assert.Equal(t, http.StatusOK, w.Code)
		ws.AssertExpectations(t)
	})
}

func TestConferenceHandler_RemoveAndDiscard(t *testing.T) {
	ws := new(MockWorkspace)
	r := conferenceEngine(ws, new(MockHistory), testActor(domainid.RoleConferente))
	ws.On("RemoveStaged", mock.Anything, "35240112345678000190550010000012341000012345").Return(nil)
	ws.On("Discard", mock.Anything).Return(shared.ErrNoActiveBatch)

	w := doJSON(r, http.MethodDelete, "/conference/staging/35240112345678000190550010000012341000012345", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/conference/active", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConferenceHandler_ListHistory(t *testing.T) {
	hist := new(MockHistory)
	r := conferenceEngine(new(MockWorkspace), hist, testActor(domainid.RoleConferente))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hist.On("List", mock.Anything, mock.MatchedBy(func(f conference.HistoryFilter) bool {
		return f.StartDate != nil && f.StartDate.Equal(start) && f.EndDate == nil && f.PageSize == 10
	})).Return([]conference.BatchSummaryResponse{{ID: uuid.New()}}, int64(25), nil)

	w := doJSON(r, http.MethodGet, "/conference/history?start_date=2024-01-01&page_size=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(25), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestConferenceHandler_ListHistory_BadDate(t *testing.T) {
	r := conferenceEngine(new(MockWorkspace), new(MockHistory), testActor(domainid.RoleConferente))

	w := doJSON(r, http.MethodGet, "/conference/history?start_date=01/02/2024", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConferenceHandler_Report_NotFound(t *testing.T) {
	hist := new(MockHistory)
	r := conferenceEngine(new(MockWorkspace), hist, testActor(domainid.RoleConferente))
	id := uuid.New()
	hist.On("Report", mock.Anything, id).Return(nil, shared.ErrNotFound)

	w := doJSON(r, http.MethodGet, "/conference/history/"+id.String()+"/report", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandler_Stats(t *testing.T) {
	t.Run("open range", func(t *testing.T) {
		hist := new(MockHistory)
		h := NewDashboardHandler(hist)
		r := newEngine(testActor(domainid.RoleConferente))
		r.GET("/dashboard/stats", h.Stats)
		hist.On("DashboardStats", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
			Return(&conference.DashboardStatsResponse{TotalConferences: 4}, nil)

		w := doJSON(r, http.MethodGet, "/dashboard/stats", "")

		assert.Equal(t, http.StatusOK, w.Code)
		hist.AssertExpectations(t)
	})

	t.Run("inverted range", func(t *testing.T) {
		hist := new(MockHistory)
		h := NewDashboardHandler(hist)
		r := newEngine(testActor(domainid.RoleConferente))
		r.GET("/dashboard/stats", h.Stats)

		w := doJSON(r, http.MethodGet, "/dashboard/stats?from=2024-03-10&to=2024-03-01", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		hist.AssertNotCalled(t, "DashboardStats", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	svc := new(MockAuth)
	h := NewAuthHandler(svc)
	r := newEngine(nil)
	r.POST("/auth/login", h.Login)

	svc.On("Login", mock.Anything, identity.LoginRequest{Username: "ana", Password: "wrong"}).
		Return(nil, shared.ErrUnauthorized)
	svc.On("Login", mock.Anything, identity.LoginRequest{Username: "ana", Password: "right"}).
		Return(&identity.LoginResult{AccessToken: "tok", TokenType: "Bearer"}, nil)

	w := doJSON(r, http.MethodPost, "/auth/login", `{"username":"ana","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", `{"username":"ana","password":"right"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)

	w = doJSON(r, http.MethodPost, "/auth/login", `{"username":"ana"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := new(MockAuth)
	h := NewAuthHandler(svc)
	actor := testActor(domainid.RoleSupervisor)
	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	r := newEngine(actor)
	r.Use(func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1", ExpiresAt: jwt.NewNumericDate(expires)},
			UserID:           actor.ID.String(),
		})
	})
	r.POST("/auth/logout", h.Logout)

	svc.On("Logout", mock.Anything, mock.MatchedBy(func(in identity.LogoutInput) bool {
		return in.UserID == actor.ID && in.TokenJTI == "jti-1" && in.ExpiresAt.Equal(expires)
	})).Return(nil)

	w := doJSON(r, http.MethodPost, "/auth/logout", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler(t *testing.T) {
	actor := testActor(domainid.RoleSupervisor)
	users := new(MockUsers)
	h := NewUserHandler(users)
	r := newEngine(actor)
	r.GET("/users", h.List)
	r.POST("/users", h.Create)
	r.PUT("/users/:id/password", h.ResetPassword)
	r.DELETE("/users/:id", h.Delete)

	adminID := uuid.New()
	users.On("List", mock.Anything, actor).Return([]identity.UserDTO{{Username: "ana"}}, nil)
	users.On("Create", mock.Anything, actor, identity.CreateUserRequest{
		Name: "Root", Username: "root", Password: "123", Role: "ADMIN",
	}).Return(nil, shared.ErrInsufficientPermission)
	users.On("ResetPassword", mock.Anything, actor, adminID, identity.ResetPasswordRequest{Password: "abcd"}).
		Return(shared.ErrInsufficientPermission)
	users.On("Delete", mock.Anything, actor, adminID).Return(nil)

	w := doJSON(r, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/users", `{"name":"Root","username":"root","password":"123","role":"ADMIN"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/users", `{"name":"X","username":"xx","password":"123","role":"OWNER"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decodeBody(t, w).Error.Code)

	w = doJSON(r, http.MethodPut, "/users/"+adminID.String()+"/password", `{"password":"abcd"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodDelete, "/users/"+adminID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	users.AssertExpectations(t)
}

func TestBranchHandler(t *testing.T) {
	actor := testActor(domainid.RoleAdmin)
	branches := new(MockBranches)
	h := NewBranchHandler(branches)
	r := newEngine(actor)
	r.GET("/branches", h.List)
	r.POST("/branches", h.Create)
	r.GET("/branches/origin", h.Origin)

	branches.On("List", mock.Anything, "centro").Return([]identity.BranchDTO{}, nil)
	branches.On("Create", mock.Anything, actor, identity.CreateBranchRequest{CNPJ: "09.267.050/0001-04", Name: "Filial Centro"}).
		Return(&identity.BranchDTO{CNPJ: "09267050000104", Name: "Filial Centro"}, nil)
	branches.On("ResolveOrigin", mock.Anything, identity.OriginQuery{CNPJ: "09267050000104", VendorName: "ACME"}).
		Return(&identity.OriginDTO{CNPJ: "09267050000104", Name: "Filial Centro", Internal: true}, nil)

	w := doJSON(r, http.MethodGet, "/branches?search=centro", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/branches", `{"cnpj":"09.267.050/0001-04","name":"Filial Centro"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/branches", `{"cnpj":"123","name":"Filial"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/branches/origin?cnpj=09267050000104&vendor_name=ACME", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"internal":true`)

	branches.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	dbErr := errors.New("connection refused")
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		body   string
	}{
		{
			name:   "all up",
			checks: map[string]HealthCheck{"database": func(ctx context.Context) error { return nil }},
			status: http.StatusOK,
			body:   `"status":"ok"`,
		},
		{
			name: "database down",
			checks: map[string]HealthCheck{
				"database": func(ctx context.Context) error { return dbErr },
				"redis":    func(ctx context.Context) error { return nil },
			},
			status: http.StatusServiceUnavailable,
			body:   `"database":"down"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("checkmaster", tt.checks)
			r := newEngine(nil)
			r.GET("/health", h.Health)

			w := doJSON(r, http.MethodGet, "/health", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}
