package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/internal/authz"
	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/internal/portable"
	"github.com/agritrace/agritrace-backend/internal/pricing"
	"github.com/agritrace/agritrace-backend/pkg/auth"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/pagination"
	"github.com/agritrace/agritrace-backend/pkg/signing"
)

type routerBatchStub struct {
	getFn        func(context.Context, int64) (*batches.BatchDTO, error)
	transitionFn func(context.Context, authz.Actor, int64, batches.TransitionInput) (*batches.BatchDTO, error)
	listFn       func(context.Context, batches.ListFilter, pagination.Params) (*batches.Page, error)
}

func (s *routerBatchStub) Register(context.Context, authz.Actor, batches.RegisterInput) (*batches.BatchDTO, error) {
	panic("unexpected Register call")
}

func (s *routerBatchStub) Transition(ctx context.Context, actor authz.Actor, batchID int64, input batches.TransitionInput) (*batches.BatchDTO, error) {
	if s.transitionFn == nil {
		panic("unexpected Transition call")
	}
	return s.transitionFn(ctx, actor, batchID, input)
}

func (s *routerBatchStub) AddQualityCheck(context.Context, authz.Actor, int64, batches.QualityCheckInput) (*batches.QualityCheckDTO, error) {
	panic("unexpected AddQualityCheck call")
}

func (s *routerBatchStub) AddCertification(context.Context, authz.Actor, int64, batches.CertificationInput) (*batches.CertificationDTO, error) {
	panic("unexpected AddCertification call")
}

func (s *routerBatchStub) SetPricing(context.Context, authz.Actor, int64, batches.SetPricingInput) (*batches.BatchDTO, error) {
	panic("unexpected SetPricing call")
}

func (s *routerBatchStub) Recall(context.Context, authz.Actor, int64, batches.RecallInput) (*batches.BatchDTO, error) {
	panic("unexpected Recall call")
}

func (s *routerBatchStub) Get(ctx context.Context, batchID int64) (*batches.BatchDTO, error) {
	if s.getFn == nil {
		panic("unexpected Get call")
	}
	return s.getFn(ctx, batchID)
}

func (s *routerBatchStub) List(ctx context.Context, filter batches.ListFilter, params pagination.Params) (*batches.Page, error) {
	if s.listFn == nil {
		panic("unexpected List call")
	}
	return s.listFn(ctx, filter, params)
}

func (s *routerBatchStub) History(context.Context, int64) (*batches.HistoryDTO, error) {
	panic("unexpected History call")
}

func (s *routerBatchStub) StatusSummary(context.Context) (*batches.StatusSummaryDTO, error) {
	panic("unexpected StatusSummary call")
}

type routerPricingStub struct{}

func (routerPricingStub) SetRange(context.Context, authz.Actor, pricing.SetRangeInput) (*pricing.RangeDTO, error) {
	panic("unexpected SetRange call")
}

func (routerPricingStub) GetRange(context.Context, string) (*pricing.RangeDTO, error) {
	panic("unexpected GetRange call")
}

func (routerPricingStub) ListRanges(context.Context) ([]pricing.RangeDTO, error) {
	return []pricing.RangeDTO{}, nil
}

func (routerPricingStub) CheckRetailPrice(context.Context, string, decimal.Decimal) error {
	panic("unexpected CheckRetailPrice call")
}

func routerConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "agritrace-test",
			ExpirationMinutes: 15,
		},
		RateLimit: config.RateLimitConfig{ScanWindow: time.Minute, ScanIPLimit: 60},
	}
}

func newTestRouter(t *testing.T, svc batches.Service) http.Handler {
	t.Helper()
	signer, err := signing.NewSigner("router-test-record-secret")
	if err != nil {
		t.Fatalf("NewSigner returned error: %v", err)
	}
	codec, err := portable.NewCodec(signer, "https://app.agritrace.io", "https://api.agritrace.io")
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}

	return NewRouter(Deps{
		Config:      routerConfig(),
		Logger:      logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Batches:     svc,
		Pricing:     routerPricingStub{},
		RecordCodec: codec,
	})
}

func bearerToken(t *testing.T, role enums.ActorRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(routerConfig().JWT, time.Now(), auth.AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorName: "Router Test",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("MintAccessToken returned error: %v", err)
	}
	return "Bearer " + token
}

func TestRouter_HealthLive(t *testing.T) {
	router := newTestRouter(t, &routerBatchStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-AgriTrace-Env") != "test" {
		t.Fatal("env header missing")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, &routerBatchStub{})

	for _, target := range []string{
		"/api/v1/batches",
		"/api/v1/batches/7",
		"/api/v1/fair-prices",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestRouter_GetBatchWithToken(t *testing.T) {
	svc := &routerBatchStub{
		getFn: func(_ context.Context, batchID int64) (*batches.BatchDTO, error) {
			return &batches.BatchDTO{ID: batchID, ProduceType: "tomato", Status: enums.BatchStatusRegistered}, nil
		},
	}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches/7", nil)
	req.Header.Set("Authorization", bearerToken(t, enums.ActorRoleFarmer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_TransitionCarriesActorFromToken(t *testing.T) {
	var gotActor authz.Actor
	svc := &routerBatchStub{
		transitionFn: func(_ context.Context, actor authz.Actor, batchID int64, input batches.TransitionInput) (*batches.BatchDTO, error) {
			gotActor = actor
			return &batches.BatchDTO{ID: batchID, Status: input.Target}, nil
		},
	}
	router := newTestRouter(t, svc)

	body := `{"target": "IN_TRANSIT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches/7/transition", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearerToken(t, enums.ActorRoleTransporter))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotActor.Role != enums.ActorRoleTransporter {
		t.Fatalf("actor role not carried from token, got %s", gotActor.Role)
	}
}

func TestRouter_PublicDecodeNeedsNoToken(t *testing.T) {
	router := newTestRouter(t, &routerBatchStub{})

	signer, err := signing.NewSigner("router-test-record-secret")
	if err != nil {
		t.Fatalf("NewSigner returned error: %v", err)
	}
	codec, err := portable.NewCodec(signer, "https://app.agritrace.io", "https://api.agritrace.io")
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	record, err := codec.Encode(enums.RecordTypeBatchTracking, map[string]any{
		"batchId":      int64(42),
		"produceType":  "tomato",
		"farmer":       "Asha Farms",
		"harvestDate":  "2026-08-28T06:00:00Z",
		"qualityGrade": "A",
	})
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	payload, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/public/records/decode", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t, &routerBatchStub{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/warehouses", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
