package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"club-portal/internal/model"
	"club-portal/internal/repository"
	"club-portal/pkg/apierror"
)

type EventService struct {
	events *repository.EventRepository
}

func NewEventService(events *repository.EventRepository) *EventService {
	return &EventService{events: events}
}

func (s *EventService) Create(ctx context.Context, ownerID string, req model.CreateEventRequest) (model.ClubEvent, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.ClubEvent{}, apierror.Validation("title is required", "title")
	}
	if req.StartsAt.IsZero() {
		return model.ClubEvent{}, apierror.Validation("starts_at is required", "starts_at")
	}

	return s.events.Create(ctx, model.ClubEvent{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
	})
}

func (s *EventService) List(ctx context.Context) ([]model.ClubEvent, error) {
	return s.events.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id string) (model.ClubEvent, error) {
	return s.events.FindByID(ctx, id)
}

func (s *EventService) Join(ctx context.Context, eventID string, userID string) error {
	return s.events.AddAttendee(ctx, eventID, userID)
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.events.Delete(ctx, id)
}
