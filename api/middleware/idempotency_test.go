package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agritrace/agritrace-backend/internal/authz"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

type memoryIdempotencyStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (s *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *memoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotentHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"call": *calls}})
	})
}

func idempotentRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	actor := authz.Actor{ID: uuid.MustParse("52fdfc07-2182-454f-963f-5f0f9a621d72"), Name: "Asha", Role: enums.ActorRoleFarmer}
	return req.WithContext(WithActor(req.Context(), actor))
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(`{"produceType":"tomato"}`, "key-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(`{"produceType":"tomato"}`, "key-1"))
	if second.Code != http.StatusCreated {
		t.Fatalf("replay should keep status, got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("replay must not re-run handler, calls=%d", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", first.Body.String(), second.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("replay should restore content type, got %q", ct)
	}
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(`{"produceType":"tomato"}`, "key-1"))

	conflict := httptest.NewRecorder()
	handler.ServeHTTP(conflict, idempotentRequest(`{"produceType":"onion"}`, "key-1"))

	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", conflict.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(conflict.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if calls != 1 {
		t.Fatalf("conflicting request must not run handler, calls=%d", calls)
	}
}

func TestIdempotency_MissingKeyOnGuardedRoute(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(`{}`, ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if calls != 0 {
		t.Fatalf("handler must not run, calls=%d", calls)
	}
}

func TestIdempotency_UnguardedRoutePassesThrough(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if calls != 1 {
		t.Fatalf("GET must pass through, calls=%d", calls)
	}
	if len(store.values) != 0 {
		t.Fatalf("GET must not persist records, stored=%d", len(store.values))
	}
}

func TestIdempotency_CriticalRoutesUseLongerTTL(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches/42/recall", bytes.NewBufferString(`{"reason":"contamination"}`))
	req.Header.Set("Idempotency-Key", "recall-1")
	actor := authz.Actor{ID: uuid.New(), Name: "Inspector", Role: enums.ActorRoleRegulator}
	req = req.WithContext(WithActor(req.Context(), actor))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if calls != 1 {
		t.Fatalf("handler should run once, calls=%d", calls)
	}
	for key, ttl := range store.ttls {
		if ttl != criticalIdempotencyTTL {
			t.Fatalf("recall record %q should use the critical TTL, got %s", key, ttl)
		}
	}
	if len(store.ttls) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.ttls))
	}
}

func TestIdempotency_ScopesByActor(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := Idempotency(store, authTestLogger())(idempotentHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(`{"produceType":"tomato"}`, "shared-key"))

	otherActor := authz.Actor{ID: uuid.New(), Name: "Meera", Role: enums.ActorRoleFarmer}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", bytes.NewBufferString(`{"produceType":"tomato"}`))
	req.Header.Set("Idempotency-Key", "shared-key")
	req = req.WithContext(WithActor(req.Context(), otherActor))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	if calls != 2 {
		t.Fatalf("different actors must not share idempotency records, calls=%d", calls)
	}
}
