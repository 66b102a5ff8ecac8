package repository

import (
	"context"
	"database/sql"
	"time"

	"plantsim/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type SnapshotRepo interface {
	Save(ctx context.Context, s models.PlantSnapshot) error
	Load(ctx context.Context) (models.PlantSnapshot, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.PlantEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PlantEvent, error)
}

type Repository struct {
	Snapshots SnapshotRepo
	Events    EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Snapshots: NewSnapshotSQLite(db),
		Events:    NewEventSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
