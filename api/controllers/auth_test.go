package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetcart/groupbuy-backend/internal/auth"
	"github.com/streetcart/groupbuy-backend/internal/users"
	"github.com/streetcart/groupbuy-backend/pkg/enums"
	pkgerrors "github.com/streetcart/groupbuy-backend/pkg/errors"
	"github.com/streetcart/groupbuy-backend/pkg/logger"
)

type stubLogin struct {
	got auth.LoginRequest
	err error
}

func (s *stubLogin) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &auth.LoginResponse{
		AccessToken: "signed-token",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: req.Role},
	}, nil
}

type stubRegister struct {
	calls int
	err   error
}

func (s *stubRegister) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Name: req.Name, Role: req.Role}, nil
}

func post(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubLogin{}
	rec := post(AuthLogin(svc, logger.Nop()), `{"email":"stall@example.com","password":"secret123","role":"vendor"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "signed-token", rec.Header().Get(tokenHeader))
	assert.Equal(t, enums.UserRoleVendor, svc.got.Role)
}

func TestAuthLoginRejectsUnknownRole(t *testing.T) {
	svc := &stubLogin{}
	rec := post(AuthLogin(svc, logger.Nop()), `{"email":"stall@example.com","password":"secret123","role":"admin"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.got.Email)
}

func TestAuthLoginPassesRoleMismatch(t *testing.T) {
	svc := &stubLogin{err: pkgerrors.New(pkgerrors.CodeRoleMismatch, auth.RoleMismatchMessage(enums.UserRoleSupplier, enums.UserRoleVendor))}
	rec := post(AuthLogin(svc, logger.Nop()), `{"email":"stall@example.com","password":"secret123","role":"vendor"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ROLE_MISMATCH")
}

func TestAuthRegisterSignsIn(t *testing.T) {
	reg := &stubRegister{}
	login := &stubLogin{}
	rec := post(AuthRegister(reg, login, logger.Nop()),
		`{"name":"Green Grocers","email":"green@example.com","password":"longenough","role":"supplier"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, "green@example.com", login.got.Email)
	assert.Equal(t, enums.UserRoleSupplier, login.got.Role)
	assert.Equal(t, "signed-token", rec.Header().Get(tokenHeader))
}

func TestAuthRegisterStopsOnConflict(t *testing.T) {
	reg := &stubRegister{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	login := &stubLogin{}
	rec := post(AuthRegister(reg, login, logger.Nop()),
		`{"name":"Green Grocers","email":"green@example.com","password":"longenough","role":"supplier"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, login.got.Email)
}
