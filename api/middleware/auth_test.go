package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/auth"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "middleware-test-secret",
		Issuer:            "agritrace-test",
		ExpirationMinutes: 15,
	}
}

func authTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: io.Discard})
}

func mintToken(t *testing.T, role enums.ActorRole) (string, uuid.UUID) {
	t.Helper()
	actorID := uuid.New()
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		ActorID:   actorID,
		ActorName: "Ravi Kumar",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	return token, actorID
}

func TestAuth_ValidTokenSeedsActor(t *testing.T) {
	token, actorID := mintToken(t, enums.ActorRoleTransporter)

	var handlerRan bool
	handler := Auth(testJWTConfig(), authTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			t.Fatal("actor missing from context")
		}
		if actor.ID != actorID {
			t.Fatalf("expected actor %s, got %s", actorID, actor.ID)
		}
		if actor.Role != enums.ActorRoleTransporter {
			t.Fatalf("unexpected role %s", actor.Role)
		}
		if actor.Name != "Ravi Kumar" {
			t.Fatalf("unexpected name %q", actor.Name)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !handlerRan {
		t.Fatal("handler did not run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth(testJWTConfig(), authTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_RejectsForgedToken(t *testing.T) {
	forgedCfg := testJWTConfig()
	forgedCfg.Secret = "some-other-secret"
	token, err := auth.MintAccessToken(forgedCfg, time.Now(), auth.AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorName: "Mallory",
		Role:      enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	handler := Auth(testJWTConfig(), authTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_RejectsExpiredToken(t *testing.T) {
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now().Add(-2*time.Hour), auth.AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorName: "Ravi Kumar",
		Role:      enums.ActorRoleFarmer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}

	handler := Auth(testJWTConfig(), authTestLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_CaseInsensitiveBearerPrefix(t *testing.T) {
	token, _ := mintToken(t, enums.ActorRoleFarmer)

	var handlerRan bool
	handler := Auth(testJWTConfig(), authTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !handlerRan {
		t.Fatal("handler did not run")
	}
}
