package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/entities"
	domainerrors "github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/domain/errors"
	"github.com/BlindPI/bpiinc-arccm-42-sub008/contexts/compliance-operations/requirement-engine/ports"
)

type recordKey struct {
	userID        string
	requirementID string
}

// Store is the in-memory implementation of every engine port. It backs local
// development and tests; versioning semantics match the postgres adapter.
type Store struct {
	mu sync.RWMutex

	users       map[string]entities.User
	assignments map[string]entities.TierAssignment
	records     map[recordKey]entities.ComplianceRecord
	auditLog    []entities.AuditEntry
	sent        []entities.Notification
	outbox      []ports.OutboxRow
	published   []ports.ComplianceEvent

	idempotency map[string]ports.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]entities.User),
		assignments: make(map[string]entities.TierAssignment),
		records:     make(map[recordKey]entities.ComplianceRecord),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
}

// SeedUser installs a user with an assignment and optional records, assigning
// version 1 to every row the way a fresh write would.
func (s *Store) SeedUser(user entities.User, assignment entities.TierAssignment, records []entities.ComplianceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.UserID] = user
	if assignment.Version == 0 {
		assignment.Version = 1
	}
	s.assignments[user.UserID] = assignment
	for _, record := range records {
		if record.Version == 0 {
			record.Version = 1
		}
		s.records[recordKey{userID: record.UserID, requirementID: record.RequirementID}] = record
	}
}

func (s *Store) GetUser(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[strings.TrimSpace(userID)]
	if !exists {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) UpdateUserRole(_ context.Context, userID string, role entities.Role, updatedAt time.Time) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[strings.TrimSpace(userID)]
	if !exists {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	user.Role = role
	user.UpdatedAt = updatedAt
	s.users[user.UserID] = user
	return user, nil
}

func (s *Store) MarkUserDeactivated(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[strings.TrimSpace(userID)]
	if !exists {
		return domainerrors.ErrUserNotFound
	}
	user.Active = false
	user.DeactivatedAt = &at
	user.UpdatedAt = at
	s.users[user.UserID] = user
	return nil
}

func (s *Store) GetTierAssignment(_ context.Context, userID string) (entities.TierAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignment, exists := s.assignments[strings.TrimSpace(userID)]
	if !exists {
		return entities.TierAssignment{}, domainerrors.ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *Store) SaveTierAssignment(_ context.Context, assignment entities.TierAssignment, expectedVersion int64) (entities.TierAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.assignments[assignment.UserID]
	if !exists {
		if expectedVersion != 0 {
			return entities.TierAssignment{}, domainerrors.ErrVersionConflict
		}
		assignment.Version = 1
		s.assignments[assignment.UserID] = assignment
		return assignment, nil
	}
	if existing.Version != expectedVersion {
		return entities.TierAssignment{}, domainerrors.ErrVersionConflict
	}
	assignment.Version = existing.Version + 1
	s.assignments[assignment.UserID] = assignment
	return assignment, nil
}

func (s *Store) ListComplianceRecords(_ context.Context, userID string) ([]entities.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID = strings.TrimSpace(userID)
	items := make([]entities.ComplianceRecord, 0)
	for _, record := range s.records {
		if record.UserID == userID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RequirementID < items[j].RequirementID
	})
	return items, nil
}

func (s *Store) GetComplianceRecord(_ context.Context, userID string, requirementID string) (entities.ComplianceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[recordKey{
		userID:        strings.TrimSpace(userID),
		requirementID: strings.TrimSpace(requirementID),
	}]
	return record, exists, nil
}

func (s *Store) UpsertComplianceRecord(_ context.Context, record entities.ComplianceRecord, expectedVersion int64) (entities.ComplianceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{userID: record.UserID, requirementID: record.RequirementID}
	existing, exists := s.records[key]
	if !exists {
		if expectedVersion != 0 {
			return entities.ComplianceRecord{}, domainerrors.ErrVersionConflict
		}
		record.Version = 1
		s.records[key] = record
		return record, nil
	}
	if existing.Version != expectedVersion {
		return entities.ComplianceRecord{}, domainerrors.ErrVersionConflict
	}
	record.RecordID = existing.RecordID
	record.Version = existing.Version + 1
	s.records[key] = record
	return record, nil
}

func (s *Store) SetRecordsNotApplicable(_ context.Context, userID string, requirementIDs []string, note string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID = strings.TrimSpace(userID)
	affected := 0
	for _, requirementID := range requirementIDs {
		key := recordKey{userID: userID, requirementID: strings.TrimSpace(requirementID)}
		record, exists := s.records[key]
		if !exists || !record.IsActive() {
			continue
		}
		record.ComplianceStatus = entities.ComplianceNotApplicable
		record.Notes = note
		record.UpdatedAt = at
		record.Version++
		s.records[key] = record
		affected++
	}
	return affected, nil
}

func (s *Store) Append(_ context.Context, entry entities.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLog = append(s.auditLog, entry)
	return nil
}

func (s *Store) Send(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, notification)
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, row ports.OutboxRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, row)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxRow, 0)
	for _, row := range s.outbox {
		if row.Status != "pending" {
			continue
		}
		items = append(items, row)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outbox {
		if row.OutboxID == outboxID {
			s.outbox[i].Status = "published"
			s.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return domainerrors.ErrRecordNotFound
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.outbox {
		if row.OutboxID == outboxID {
			s.outbox[i].Status = "failed"
			s.outbox[i].RetryCount++
			return nil
		}
	}
	return domainerrors.ErrRecordNotFound
}

func (s *Store) PublishComplianceEvent(_ context.Context, event ports.ComplianceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.published = append(s.published, event)
	return nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// AuditEntries returns the audit rows for a user in append order.
func (s *Store) AuditEntries(userID string) []entities.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AuditEntry, 0)
	for _, entry := range s.auditLog {
		if entry.UserID == userID {
			items = append(items, entry)
		}
	}
	return items
}

// Notifications returns the sent notifications for a user in send order.
func (s *Store) Notifications(userID string) []entities.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Notification, 0)
	for _, notification := range s.sent {
		if notification.UserID == userID {
			items = append(items, notification)
		}
	}
	return items
}

// PublishedEvents returns every event published through the in-memory bus.
func (s *Store) PublishedEvents() []ports.ComplianceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.ComplianceEvent, len(s.published))
	copy(items, s.published)
	return items
}
