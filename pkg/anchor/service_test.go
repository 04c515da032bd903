package anchor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.AnchorEvent{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestEmit_StagesEnvelope(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	actorID := uuid.New()

	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventBatchRegistered,
		AggregateType: enums.AggregateBatch,
		AggregateID:   "42",
		Actor:         &ActorRef{ActorID: actorID, Role: "farmer"},
		Data:          map[string]any{"produceType": "tomato"},
		Version:       1,
	})
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	var row models.AnchorEvent
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("expected staged row: %v", err)
	}
	if row.EventType != enums.EventBatchRegistered {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.AggregateID != "42" {
		t.Fatalf("unexpected aggregate id %s", row.AggregateID)
	}
	if row.PublishedAt != nil {
		t.Fatal("new events must start unpublished")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("payload is not an envelope: %v", err)
	}
	if envelope.Version != 1 || envelope.EventID == "" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if envelope.Actor == nil || envelope.Actor.ActorID != actorID {
		t.Fatalf("expected actor ref, got %+v", envelope.Actor)
	}
}

func TestEmit_RequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected missing transaction to error")
	}
}

func TestRepository_PublishLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	for i := 0; i < 3; i++ {
		event := models.AnchorEvent{
			ID:            uuid.New(),
			EventType:     enums.EventBatchStatusChanged,
			AggregateType: enums.AggregateBatch,
			AggregateID:   "7",
			Payload:       json.RawMessage(`{}`),
		}
		if err := repo.Insert(db, event); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	rows, err := repo.FetchUnpublished(10, 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 unpublished rows, got %d", len(rows))
	}

	if err := repo.MarkPublished(rows[0].ID); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	if err := repo.MarkFailed(rows[1].ID, context.DeadlineExceeded); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}

	rows, err = repo.FetchUnpublished(10, 10)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 unpublished rows after publish, got %d", len(rows))
	}

	var failed models.AnchorEvent
	if err := db.Where("attempt_count > 0").First(&failed).Error; err != nil {
		t.Fatalf("expected failed row: %v", err)
	}
	if failed.LastError == nil || *failed.LastError == "" {
		t.Fatal("expected last_error to be recorded")
	}
}
