package services

import (
	"context"
	"fmt"
	"time"

	"gembala/internal/amqp"
	"gembala/internal/core"
	applog "gembala/internal/log"
	"gembala/internal/storage"
)

// Invalidator is the hook the statistics cache exposes; every mutation
// made through this service trips it.
type Invalidator interface {
	Invalidate()
}

// Publisher publishes change events for consumers outside this process.
type Publisher interface {
	PublishPerubahan(ctx context.Context, entity string, id int64, op string) error
}

// JemaatService orchestrates congregation record writes: persist to
// SQLite, invalidate the stats caches, announce the change over AMQP.
// The local write is the source of truth; a failed event publish is
// logged, never propagated to the caller.
type JemaatService struct {
	storage     *storage.SQLiteRepository
	publisher   Publisher
	invalidator Invalidator
	logger      *applog.Logger
	now         func() time.Time
}

func NewJemaatService(storage *storage.SQLiteRepository, publisher Publisher, invalidator Invalidator, logger *applog.Logger) *JemaatService {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentJemaat})
	}
	return &JemaatService{
		storage:     storage,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *JemaatService) CreateJemaat(ctx context.Context, j core.Jemaat) (int64, error) {
	if err := j.Validate(s.now()); err != nil {
		return 0, err
	}
	if !j.StatusKeluarga.IsValid() {
		return 0, fmt.Errorf("invalid status keluarga %q", j.StatusKeluarga)
	}

	id, err := s.storage.CreateJemaat(ctx, j)
	if err != nil {
		return 0, fmt.Errorf("create jemaat: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityJemaat, id, amqp.OpCreate)
	return id, nil
}

func (s *JemaatService) GetJemaat(ctx context.Context, id int64) (*core.Jemaat, error) {
	return s.storage.GetJemaat(ctx, id)
}

func (s *JemaatService) ListJemaat(ctx context.Context, limit, offset int) ([]core.Jemaat, error) {
	return s.storage.ListJemaat(ctx, limit, offset)
}

func (s *JemaatService) UpdateJemaat(ctx context.Context, j core.Jemaat) error {
	if err := j.Validate(s.now()); err != nil {
		return err
	}

	if err := s.storage.UpdateJemaat(ctx, j); err != nil {
		return fmt.Errorf("update jemaat: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityJemaat, j.ID, amqp.OpUpdate)
	return nil
}

func (s *JemaatService) DeleteJemaat(ctx context.Context, id int64) error {
	if err := s.storage.DeleteJemaat(ctx, id); err != nil {
		return fmt.Errorf("delete jemaat: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityJemaat, id, amqp.OpDelete)
	return nil
}

func (s *JemaatService) CreateKeluarga(ctx context.Context, k core.Keluarga) (int64, error) {
	id, err := s.storage.CreateKeluarga(ctx, k)
	if err != nil {
		return 0, fmt.Errorf("create keluarga: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityKeluarga, id, amqp.OpCreate)
	return id, nil
}

func (s *JemaatService) GetKeluarga(ctx context.Context, id int64) (*core.Keluarga, error) {
	return s.storage.GetKeluarga(ctx, id)
}

func (s *JemaatService) ListKeluarga(ctx context.Context, limit, offset int) ([]core.Keluarga, error) {
	return s.storage.ListKeluarga(ctx, limit, offset)
}

func (s *JemaatService) DeleteKeluarga(ctx context.Context, id int64) error {
	if err := s.storage.DeleteKeluarga(ctx, id); err != nil {
		return fmt.Errorf("delete keluarga: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityKeluarga, id, amqp.OpDelete)
	return nil
}

func (s *JemaatService) CreateRayon(ctx context.Context, nama string) (int64, error) {
	if nama == "" {
		return 0, core.ErrEmptyNama
	}
	id, err := s.storage.CreateRayon(ctx, nama)
	if err != nil {
		return 0, fmt.Errorf("create rayon: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityRayon, id, amqp.OpCreate)
	return id, nil
}

func (s *JemaatService) ListRayon(ctx context.Context) ([]core.Rayon, error) {
	return s.storage.ListRayon(ctx)
}

func (s *JemaatService) DeleteRayon(ctx context.Context, id int64) error {
	if err := s.storage.DeleteRayon(ctx, id); err != nil {
		return fmt.Errorf("delete rayon: %w", err)
	}

	s.afterMutation(ctx, amqp.EntityRayon, id, amqp.OpDelete)
	return nil
}

// HandlePerubahan applies an incoming change event from another process:
// it only needs to trip the cache invalidation hook.
func (s *JemaatService) HandlePerubahan(ctx context.Context, msg *amqp.PerubahanMessage) error {
	s.logger.InfoContext(ctx, "Applying change event",
		applog.FieldEntity, msg.Entity,
		applog.FieldJemaatID, msg.ID,
		applog.FieldOperation, msg.Op)
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	return nil
}

func (s *JemaatService) afterMutation(ctx context.Context, entity string, id int64, op string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPerubahan(ctx, entity, id, op); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change event",
			applog.FieldError, err,
			applog.FieldEntity, entity,
			applog.FieldOperation, op)
	}
}

// Close releases the storage connection.
func (s *JemaatService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}
