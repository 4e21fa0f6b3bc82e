package domain

import "time"

type Category struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
