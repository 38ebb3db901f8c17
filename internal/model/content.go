package model

import "time"

// Post is a member-authored article. Soft-deleted rows keep their id so
// ownership checks stay stable.
type Post struct {
	ID        string     `json:"id"`
	AuthorID  string     `json:"author_id"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Mine      bool       `json:"mine,omitempty"`
	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ClubEvent is a scheduled club activity created by moderators.
type ClubEvent struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Attendees   int       `json:"attendees"`
	CreatedAt   time.Time `json:"created_at"`
}
