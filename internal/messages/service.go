package messages

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// TextGenerator produces free text from a system and a user prompt.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Service struct {
	repo     Repository
	gen      TextGenerator
	business string
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, gen TextGenerator, business string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if business == "" {
		business = "Servicios Rápidos"
	}
	return &Service{
		repo:     repo,
		gen:      gen,
		business: business,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Generate writes and stores the message for ev. Text-generation failures
// wrap shared.ErrExternalService and store nothing.
func (s *Service) Generate(ctx context.Context, ev notify.Event) (*Message, error) {
	if !ev.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown message kind %q", shared.ErrValidation, ev.Kind)
	}
	facts, err := s.repo.LoadFacts(ctx, ev.Entity, ev.EntityID)
	if err != nil {
		return nil, fmt.Errorf("load message facts: %w", err)
	}
	system, prompt, err := BuildPrompt(s.business, ev.Kind, *facts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	started := time.Now()
	body, err := s.gen.Complete(ctx, system, prompt)
	if err != nil {
		s.logger.Warn("message generation failed", slog.String("kind", string(ev.Kind)), slog.String("code", facts.Code), slog.Any("error", err))
		return nil, err
	}

	msg := Message{
		Kind:        ev.Kind,
		Entity:      ev.Entity,
		EntityID:    ev.EntityID,
		Phone:       NormalizePhone(facts.Phone),
		Body:        body,
		WhatsAppURL: WhatsAppLink(facts.Phone, body),
		CreatedAt:   s.now(),
	}
	id, err := s.repo.Save(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}
	msg.ID = id
	s.logger.Info("message generated",
		slog.String("kind", string(ev.Kind)), slog.String("code", facts.Code),
		slog.Duration("duration", time.Since(started)))
	return &msg, nil
}

func (s *Service) List(ctx context.Context, entity string, id int64) ([]Message, error) {
	switch entity {
	case "quote", "order", "warranty":
	default:
		return nil, fmt.Errorf("%w: entity must be quote, order or warranty", shared.ErrValidation)
	}
	return s.repo.List(ctx, entity, id)
}
