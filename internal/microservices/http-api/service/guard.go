package service

import (
	"context"
	"log/slog"

	"prompterest/internal/metrics"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/shared"
)

// Operations checked by the guard; used as log and metric labels
const (
	OpEdit   = "edit"
	OpUpdate = "update"
	OpDelete = "delete"
)

// CanMutate reports whether actor may edit or delete a prompt created by creatorID.
// Anonymous actors never may; a prompt without a creator belongs to nobody.
func CanMutate(actor *shared.Identity, creatorID string) bool {
	return actor != nil && actor.ID != "" && actor.ID == creatorID
}

// Guard is the authoritative checkpoint. It re-reads the creator from the row
// store on every call instead of trusting anything the client rendered.
type Guard struct {
	prompts repository.PromptRepository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewGuard(prompts repository.PromptRepository, logger *slog.Logger, m *metrics.Metrics) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{prompts: prompts, logger: logger, metrics: m}
}

// Authorize returns nil when actor created promptID, ErrUnauthenticated for an
// anonymous actor, ErrNotFound for a missing prompt and ErrForbidden otherwise.
func (g *Guard) Authorize(ctx context.Context, actor *shared.Identity, promptID, op string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !validID(promptID) {
		return ErrNotFound
	}

	creatorID, err := g.prompts.GetCreatorID(ctx, promptID)
	if err != nil {
		return storeErr("load prompt creator", err)
	}

	allowed := CanMutate(actor, creatorID)
	g.metrics.MutationDecision(op, allowed)
	if !allowed {
		g.logger.WarnContext(ctx, "mutation_denied",
			"operation", op,
			"prompt_id", promptID,
			"actor_id", actor.ID,
		)
		return ErrForbidden
	}
	return nil
}
