package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"okrpulse/internal/model"
)

// AddActor validates and inserts a new profile, assigning its identifier
// and creation time.
func (s *Store) AddActor(a model.Actor) (model.Actor, error) {
	if a.Role == "" {
		a.Role = model.RoleEmployee
	}
	if err := model.ValidateActor(a); err != nil {
		return model.Actor{}, err
	}

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))

	_, err := s.db.Exec(`
		INSERT INTO profiles (id, full_name, email, entity, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.FullName, a.Email, a.Entity, string(a.Role), formatTime(a.CreatedAt))
	if err != nil {
		return model.Actor{}, fmt.Errorf("insert profile: %w", err)
	}
	return a, nil
}

// ListActors returns all profiles ordered by display name.
func (s *Store) ListActors() ([]model.Actor, error) {
	rows, err := s.db.Query(`
		SELECT id, full_name, email, entity, role, created_at
		FROM profiles
		ORDER BY full_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var actors []model.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return actors, nil
}

// ActorByEmail looks up a profile by email, case-insensitively.
func (s *Store) ActorByEmail(email string) (model.Actor, bool, error) {
	row := s.db.QueryRow(`
		SELECT id, full_name, email, entity, role, created_at
		FROM profiles
		WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email)))
	return scanActorRow(row)
}

// ActorByID looks up a profile by identifier.
func (s *Store) ActorByID(id string) (model.Actor, bool, error) {
	row := s.db.QueryRow(`
		SELECT id, full_name, email, entity, role, created_at
		FROM profiles
		WHERE id = ?
	`, id)
	return scanActorRow(row)
}

// Identify resolves an already-authenticated actor email to its identity
// and admin classification.
func (s *Store) Identify(email string) (model.Actor, model.Identity, error) {
	a, ok, err := s.ActorByEmail(email)
	if err != nil {
		return model.Actor{}, model.Identity{}, err
	}
	if !ok {
		return model.Actor{}, model.Identity{}, fmt.Errorf("no profile found for %s", email)
	}
	return a, model.Identity{ActorID: a.ID, IsAdmin: a.Role == model.RoleAdmin}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (model.Actor, error) {
	var a model.Actor
	var role string
	var createdAt sql.NullString
	if err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Entity, &role, &createdAt); err != nil {
		return model.Actor{}, fmt.Errorf("scan profile: %w", err)
	}
	a.Role = model.Role(role)
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func scanActorRow(row *sql.Row) (model.Actor, bool, error) {
	a, err := scanActor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Actor{}, false, nil
		}
		return model.Actor{}, false, err
	}
	return a, true, nil
}
