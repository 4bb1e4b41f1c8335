package tag

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mliu/prompthub/internal/domain/event"
	domaintag "github.com/mliu/prompthub/internal/domain/tag"
	portbus "github.com/mliu/prompthub/internal/port/eventbus"
	porttag "github.com/mliu/prompthub/internal/port/tag"
)

// Service provides per-user tag CRUD. Uniqueness of (user, name) is
// enforced by the repository.
type Service struct {
	repo porttag.Repository
	bus  portbus.EventBus
}

func NewService(repo porttag.Repository, bus portbus.EventBus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, name, color string) (domaintag.Tag, error) {
	if err := domaintag.ValidateName(name); err != nil {
		return domaintag.Tag{}, err
	}
	if err := domaintag.ValidateColor(color); err != nil {
		return domaintag.Tag{}, err
	}

	created, err := s.repo.Create(ctx, domaintag.New(userID, name, color))
	if err != nil {
		return domaintag.Tag{}, fmt.Errorf("create tag: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypeTagCreated, created.ID)) //nolint:errcheck

	return created, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (domaintag.Tag, error) {
	t, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domaintag.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domaintag.Tag, error) {
	tags, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *Service) ListWithCounts(ctx context.Context, userID uuid.UUID) ([]domaintag.WithCount, error) {
	tags, err := s.repo.ListWithCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags with counts: %w", err)
	}
	return tags, nil
}

func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, name, color *string) (domaintag.Tag, error) {
	if name != nil {
		if err := domaintag.ValidateName(*name); err != nil {
			return domaintag.Tag{}, err
		}
	}
	if color != nil {
		if err := domaintag.ValidateColor(*color); err != nil {
			return domaintag.Tag{}, err
		}
	}

	updated, err := s.repo.Update(ctx, id, userID, name, color)
	if err != nil {
		return domaintag.Tag{}, fmt.Errorf("update tag: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypeTagUpdated, id)) //nolint:errcheck

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypeTagDeleted, id)) //nolint:errcheck

	return nil
}
