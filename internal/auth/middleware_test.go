package auth

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAuthenticator(buf *bytes.Buffer) *Authenticator {
	audit := slog.New(slog.NewJSONHandler(buf, nil))
	return NewAuthenticator([]Token{{Name: "ops", Value: "secret"}, {Name: "blank", Value: " "}}, audit)
}

func TestMiddlewareDisabledWithoutTokens(t *testing.T) {
	called := false
	handler := NewAuthenticator(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got status %d called=%v", rec.Code, called)
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	var buf bytes.Buffer
	handler := newTestAuthenticator(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer", "Basic secret", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
	if !strings.Contains(buf.String(), "access_denied") {
		t.Fatalf("expected audit entry, got %s", buf.String())
	}
}

func TestMiddlewareAcceptsToken(t *testing.T) {
	var buf bytes.Buffer
	var subject *Subject
	handler := newTestAuthenticator(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if subject == nil || subject.Name != "ops" {
		t.Fatalf("unexpected subject %+v", subject)
	}
	if !strings.Contains(buf.String(), `"user":"ops"`) || !strings.Contains(buf.String(), `"status":202`) {
		t.Fatalf("unexpected audit output %s", buf.String())
	}
}

func TestSubjectFromEmptyContext(t *testing.T) {
	if SubjectFromContext(context.Background()) != nil {
		t.Fatal("expected no subject")
	}
	if WithSubject(context.Background(), nil) == nil {
		t.Fatal("expected context")
	}
}
