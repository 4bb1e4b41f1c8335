package prompt

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mliu/prompthub/internal/domain/diff"
	"github.com/mliu/prompthub/internal/domain/errs"
	"github.com/mliu/prompthub/internal/domain/event"
	domainprompt "github.com/mliu/prompthub/internal/domain/prompt"
	domainversion "github.com/mliu/prompthub/internal/domain/version"
	portbus "github.com/mliu/prompthub/internal/port/eventbus"
	portlocker "github.com/mliu/prompthub/internal/port/locker"
	portprompt "github.com/mliu/prompthub/internal/port/prompt"
)

// publishAttempts bounds the retry loop on a lost version-number race.
// The advisory lock makes the race unreachable between well-behaved
// replicas; the unique index plus retry covers everything else.
const publishAttempts = 3

// Service owns the prompt state machine and version numbering. It is the
// sole writer of prompt status, the current-version pointer, the draft
// buffer, and version rows.
type Service struct {
	repo   portprompt.Repository
	bus    portbus.EventBus
	locker portlocker.AdvisoryLocker
}

func NewService(repo portprompt.Repository, bus portbus.EventBus, locker portlocker.AdvisoryLocker) *Service {
	return &Service{repo: repo, bus: bus, locker: locker}
}

// Create makes a new draft prompt. With publish set, version #1 is minted
// immediately and the prompt lands in published with an empty draft buffer.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, title, content string, tagIDs []uuid.UUID, publish bool, description *string) (domainprompt.Detail, error) {
	if err := domainprompt.ValidateTitle(title); err != nil {
		return domainprompt.Detail{}, err
	}
	if err := domainprompt.ValidateContent(content); err != nil {
		return domainprompt.Detail{}, err
	}
	if description != nil {
		if err := domainprompt.ValidateDescription(*description); err != nil {
			return domainprompt.Detail{}, err
		}
	}

	created, err := s.repo.Create(ctx, domainprompt.New(userID, title, content), tagIDs)
	if err != nil {
		return domainprompt.Detail{}, fmt.Errorf("create prompt: %w", err)
	}

	if publish {
		if _, err := s.publishLocked(ctx, created.ID, userID, nil, description); err != nil {
			// Roll the insert back so a failed create-and-publish does not
			// leave a stray draft behind.
			if delErr := s.repo.Delete(ctx, created.ID, userID); delErr != nil {
				slog.ErrorContext(ctx, "failed to roll back prompt after publish failure", "prompt_id", created.ID, "error", delErr)
			}
			return domainprompt.Detail{}, fmt.Errorf("publish initial version: %w", err)
		}
	}

	detail, err := s.repo.GetByID(ctx, created.ID, userID)
	if err != nil {
		return domainprompt.Detail{}, fmt.Errorf("fetch created prompt: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypePromptCreated, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish PromptCreated event", "prompt_id", created.ID, "error", err)
	}

	return detail, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (domainprompt.Detail, error) {
	d, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return domainprompt.Detail{}, fmt.Errorf("get prompt: %w", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, filters domainprompt.ListFilters) ([]domainprompt.ListItem, int, error) {
	items, total, err := s.repo.List(ctx, filters.Normalize())
	if err != nil {
		return nil, 0, fmt.Errorf("list prompts: %w", err)
	}
	return items, total, nil
}

// SaveDraft applies a partial update to the draft buffer, title, or tag
// set. Supplying content on a published prompt moves it to
// published_with_updates; a title-only change never touches the status.
func (s *Service) SaveDraft(ctx context.Context, id, userID uuid.UUID, upd domainprompt.DraftUpdate) (domainprompt.Prompt, error) {
	if upd.Title != nil {
		if err := domainprompt.ValidateTitle(*upd.Title); err != nil {
			return domainprompt.Prompt{}, err
		}
	}
	if upd.Content != nil {
		if err := domainprompt.ValidateContent(*upd.Content); err != nil {
			return domainprompt.Prompt{}, err
		}
	}

	updated, err := s.repo.UpdateDraft(ctx, id, userID, upd)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("save draft: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypePromptUpdated, id)) //nolint:errcheck

	return updated, nil
}

// Publish snapshots the pending draft (or, absent one, the current
// version's content) into the next version. Publish is deliberately not
// idempotent: calling it twice with identical content mints two versions
// with consecutive numbers.
func (s *Service) Publish(ctx context.Context, promptID, userID uuid.UUID, description *string) (domainversion.Version, error) {
	if description != nil {
		if err := domainprompt.ValidateDescription(*description); err != nil {
			return domainversion.Version{}, err
		}
	}
	return s.publishLocked(ctx, promptID, userID, nil, description)
}

// Restore republishes an old snapshot's content as a brand-new version.
// The target version is untouched and stays addressable.
func (s *Service) Restore(ctx context.Context, promptID, userID, targetVersionID uuid.UUID) (domainversion.Version, error) {
	target, err := s.repo.GetVersion(ctx, targetVersionID, userID)
	if err != nil {
		return domainversion.Version{}, fmt.Errorf("get restore target: %w", err)
	}
	if target.PromptID != promptID {
		return domainversion.Version{}, fmt.Errorf("get restore target: %w", errs.ErrNotFound)
	}

	description := fmt.Sprintf("Restored from V%d", target.VersionNumber)
	return s.publishLocked(ctx, promptID, userID, &target.Content, &description)
}

// Delete cascades to all versions and tag associations. The confirmation
// token guards against fat-finger deletes from API clients.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID, confirmation string) error {
	if confirmation != "DELETE" {
		return errs.Validation("confirmation", `must be "DELETE"`)
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypePromptDeleted, id)) //nolint:errcheck

	return nil
}

func (s *Service) ListVersions(ctx context.Context, promptID, userID uuid.UUID) ([]domainversion.Version, error) {
	versions, err := s.repo.ListVersions(ctx, promptID, userID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *Service) GetVersion(ctx context.Context, versionID, userID uuid.UUID) (domainversion.Version, error) {
	v, err := s.repo.GetVersion(ctx, versionID, userID)
	if err != nil {
		return domainversion.Version{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// Comparison is a diff between two versions of the same prompt, ordered
// chronologically regardless of selection order.
type Comparison struct {
	Old   domainversion.Version `json:"old"`
	New   domainversion.Version `json:"new"`
	Lines []diff.Line           `json:"lines"`
}

// Compare fetches both versions, puts the lower number on the old side,
// and diffs their content.
func (s *Service) Compare(ctx context.Context, userID, firstID, secondID uuid.UUID) (Comparison, error) {
	first, err := s.repo.GetVersion(ctx, firstID, userID)
	if err != nil {
		return Comparison{}, fmt.Errorf("get first version: %w", err)
	}
	second, err := s.repo.GetVersion(ctx, secondID, userID)
	if err != nil {
		return Comparison{}, fmt.Errorf("get second version: %w", err)
	}
	if first.PromptID != second.PromptID {
		return Comparison{}, errs.Validation("version_ids", "versions belong to different prompts")
	}

	older, newer := first, second
	if older.VersionNumber > newer.VersionNumber {
		older, newer = newer, older
	}

	return Comparison{
		Old:   older,
		New:   newer,
		Lines: diff.Compute(older.Content, newer.Content),
	}, nil
}

// RestorePreview diffs the prompt's current effective content against the
// restore target. Advisory only — it does not change any state.
func (s *Service) RestorePreview(ctx context.Context, promptID, userID, targetVersionID uuid.UUID) ([]diff.Line, error) {
	detail, err := s.repo.GetByID(ctx, promptID, userID)
	if err != nil {
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	target, err := s.repo.GetVersion(ctx, targetVersionID, userID)
	if err != nil {
		return nil, fmt.Errorf("get restore target: %w", err)
	}
	if target.PromptID != promptID {
		return nil, fmt.Errorf("get restore target: %w", errs.ErrNotFound)
	}
	return diff.Compute(detail.EffectiveContent(), target.Content), nil
}

// publishLocked serialises version-number allocation per prompt with a
// Postgres advisory lock, then retries the publish transaction a bounded
// number of times if the unique index still reports a race.
func (s *Service) publishLocked(ctx context.Context, promptID, userID uuid.UUID, contentOverride, description *string) (domainversion.Version, error) {
	var published domainversion.Version

	err := s.locker.WithLock(ctx, lockKey(promptID), func(ctx context.Context) error {
		var lastErr error
		for range publishAttempts {
			v, err := s.repo.Publish(ctx, promptID, userID, contentOverride, description)
			if err == nil {
				published = v
				return nil
			}
			if !errors.Is(err, errs.ErrConflict) {
				return err
			}
			lastErr = err
		}
		return lastErr
	})
	if err != nil {
		return domainversion.Version{}, fmt.Errorf("publish version: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypeVersionPublished, promptID)) //nolint:errcheck

	return published, nil
}

// lockKey maps a prompt ID onto the advisory-lock keyspace.
func lockKey(promptID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(promptID[:]) //nolint:errcheck
	return int64(h.Sum64())
}
