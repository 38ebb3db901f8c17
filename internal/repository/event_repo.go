package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"club-portal/internal/model"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) Create(ctx context.Context, e model.ClubEvent) (model.ClubEvent, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO events (id, owner_id, title, description, location, starts_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		e.ID, e.OwnerID, e.Title, e.Description, e.Location, e.StartsAt).Scan(&e.CreatedAt)
	if err != nil {
		return model.ClubEvent{}, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (model.ClubEvent, error) {
	var e model.ClubEvent
	err := r.pool.QueryRow(ctx,
		`SELECT e.id, e.owner_id, e.title, e.description, e.location, e.starts_at, e.created_at,
		        (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
		 FROM events e WHERE e.id = $1`, id).
		Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.CreatedAt, &e.Attendees)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClubEvent{}, model.ErrEventNotFound
	}
	if err != nil {
		return model.ClubEvent{}, fmt.Errorf("find event by id: %w", err)
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context) ([]model.ClubEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.owner_id, e.title, e.description, e.location, e.starts_at, e.created_at,
		        (SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
		 FROM events e ORDER BY e.starts_at`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.ClubEvent, 0)
	for rows.Next() {
		var e model.ClubEvent
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.CreatedAt, &e.Attendees); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// AddAttendee inserts the attendance row. The composite primary key rejects a
// second join by the same member.
func (r *EventRepository) AddAttendee(ctx context.Context, eventID string, userID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_attendees (event_id, user_id) VALUES ($1, $2)`,
		eventID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return model.ErrAlreadyAttending
			case "23503":
				return model.ErrEventNotFound
			}
		}
		return fmt.Errorf("add attendee: %w", err)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}
