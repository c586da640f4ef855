package postgresadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return NewRepository(gdb, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetUserMapsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM "compliance_users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetUser(context.Background(), "usr-ghost")
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetUserScansRow(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "compliance_users"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "display_name", "email", "role", "active", "created_at", "updated_at", "deactivated_at",
		}).AddRow("usr-1", "Devon Park", "devon@example.com", "IT", true, now, now, nil))

	user, err := repo.GetUser(context.Background(), "usr-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.UserID != "usr-1" || user.Role != entities.RoleIT || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	expectationsMet(t, mock)
}

func TestSaveTierAssignmentVersionedUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()
	assignment := entities.TierAssignment{
		UserID:               "usr-1",
		Tier:                 entities.TierRobust,
		CompletionPercentage: 66.7,
		AssignedAt:           now,
		UpdatedAt:            now,
		Version:              3,
	}

	mock.ExpectExec(`UPDATE "compliance_tier_assignments" SET .* WHERE user_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	saved, err := repo.SaveTierAssignment(context.Background(), assignment, 3)
	if err != nil {
		t.Fatalf("save assignment: %v", err)
	}
	if saved.Version != 4 {
		t.Fatalf("expected version 4, got %d", saved.Version)
	}
	expectationsMet(t, mock)
}

func TestSaveTierAssignmentStaleVersion(t *testing.T) {
	repo, mock := newMockRepository(t)
	assignment := entities.TierAssignment{UserID: "usr-1", Tier: entities.TierRobust, Version: 2}

	mock.ExpectExec(`UPDATE "compliance_tier_assignments"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.SaveTierAssignment(context.Background(), assignment, 2)
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSaveTierAssignmentCreateUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)
	assignment := entities.TierAssignment{UserID: "usr-1", Tier: entities.TierBasic}

	mock.ExpectExec(`INSERT INTO "compliance_tier_assignments"`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.SaveTierAssignment(context.Background(), assignment, 0)
	if !errors.Is(err, domainerrors.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict on duplicate create, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestSetRecordsNotApplicableCountsRows(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "compliance_user_records" SET .* WHERE user_id = \$\d+ AND requirement_id IN .* AND compliance_status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.SetRecordsNotApplicable(context.Background(), "usr-1", []string{"r1", "r2", "r3"}, "superseded by role/tier change", time.Now().UTC())
	if err != nil {
		t.Fatalf("set not applicable: %v", err)
	}
	if affected != 3 {
		t.Fatalf("expected 3 affected rows, got %d", affected)
	}
	expectationsMet(t, mock)
}

func TestSetRecordsNotApplicableEmptyListSkipsQuery(t *testing.T) {
	repo, mock := newMockRepository(t)

	affected, err := repo.SetRecordsNotApplicable(context.Background(), "usr-1", nil, "noop", time.Now().UTC())
	if err != nil || affected != 0 {
		t.Fatalf("expected no-op, got affected=%d err=%v", affected, err)
	}
	expectationsMet(t, mock)
}

func TestMarkOutboxPublishedUnknownRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "compliance_outbox"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkOutboxPublished(context.Background(), "out-ghost", time.Now().UTC())
	if !errors.Is(err, domainerrors.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestPutRecordDetectsHashConflict(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	// Insert hits the conflict clause, so zero rows; the existing record is
	// then loaded and its hash compared.
	mock.ExpectExec(`INSERT INTO "compliance_idempotency" .* ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .* FROM "compliance_idempotency"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"key", "operation", "request_hash", "response_payload", "expires_at",
		}).AddRow("compliance_idempotency:key-1", "transition_requirement", "hash-a", []byte(`{}`), now.Add(time.Hour)))

	err := repo.PutRecord(context.Background(), ports.IdempotencyRecord{
		Key:         "compliance_idempotency:key-1",
		Operation:   "transition_requirement",
		RequestHash: "hash-b",
		ExpiresAt:   now.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetRecordExpiresStaleRows(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM "compliance_idempotency"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"key", "operation", "request_hash", "response_payload", "expires_at",
		}).AddRow("compliance_idempotency:key-1", "switch_tier", "hash-a", []byte(`{}`), now.Add(-time.Minute)))
	mock.ExpectExec(`DELETE FROM "compliance_idempotency"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, exists, err := repo.GetRecord(context.Background(), "compliance_idempotency:key-1", now)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if exists {
		t.Fatal("expired record must not be returned")
	}
	expectationsMet(t, mock)
}
