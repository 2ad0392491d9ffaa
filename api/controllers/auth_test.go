package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mentorhub/mentorhub-backend/internal/auth"
	pkgerrors "github.com/mentorhub/mentorhub-backend/pkg/errors"
)

type stubAuthService struct {
	pair *auth.TokenPair
	err  error

	loggedOut []string
}

func (s *stubAuthService) Register(ctx context.Context, input auth.RegisterInput) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Login(ctx context.Context, input auth.LoginInput) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, input auth.RefreshInput) (*auth.TokenPair, error) {
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.loggedOut = append(s.loggedOut, accessToken)
	return s.err
}

func TestAuthRegisterSuccess(t *testing.T) {
	svc := &stubAuthService{pair: &auth.TokenPair{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		UserID:       "user-1",
		Email:        "mentor@example.com",
	}}
	handler := AuthRegister(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"email":"mentor@example.com","password":"longenough","name":"Alex"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Data auth.TokenPair `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AccessToken != "access-token" {
		t.Fatalf("expected access token in payload got %+v", envelope.Data)
	}
	if envelope.Data.Email != "mentor@example.com" {
		t.Fatalf("expected email in payload got %+v", envelope.Data)
	}
}

func TestAuthRegisterInvalidPayload(t *testing.T) {
	handler := AuthRegister(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader([]byte(`{"password":"longenough"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginFailurePropagates(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := AuthLogin(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"mentor@example.com","password":"wrong-pass"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected code: %s", envelope.Error.Code)
	}
}

func TestAuthLogoutUsesBearerToken(t *testing.T) {
	svc := &stubAuthService{}
	handler := AuthLogout(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer the-token")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "the-token" {
		t.Fatalf("expected logout with bearer token, got %v", svc.loggedOut)
	}
}

func TestAuthLogoutMissingToken(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
