package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wrenchbid/internal/models"
)

// CreateWorkshop inserts a workshop profile.
func (db *DB) CreateWorkshop(ctx context.Context, w *models.Workshop) error {
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO workshops (id, name, city, rating, review_count, certifications, active, created_at, updated_at)
		VALUES (:id, :name, :city, :rating, :review_count, :certifications, :active, :created_at, :updated_at)`,
		w)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("workshop %s already exists: %w", w.ID, err)
		}
		return fmt.Errorf("insert workshop: %w", err)
	}
	return nil
}

// GetWorkshop returns the live profile or ErrNotFound.
func (db *DB) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	var w models.Workshop
	err := db.GetContext(ctx, &w, `
		SELECT id, name, city, rating, review_count, certifications, active, created_at, updated_at
		FROM workshops WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	return &w, nil
}

// UpdateWorkshopRating replaces the live rating and review count, for
// example after a new review lands. Bid snapshots are untouched.
func (db *DB) UpdateWorkshopRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	res, err := db.ExecContext(ctx, `
		UPDATE workshops SET rating = ?, review_count = ?, updated_at = ? WHERE id = ?`,
		rating, reviewCount, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update workshop rating: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertRole grants or updates a user's role at a workshop.
func (db *DB) UpsertRole(ctx context.Context, r *models.WorkshopRole) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO workshop_roles (workshop_id, user_id, role, can_send_quotes, created_at)
		VALUES (:workshop_id, :user_id, :role, :can_send_quotes, :created_at)
		ON CONFLICT(workshop_id, user_id) DO UPDATE SET
			role = excluded.role,
			can_send_quotes = excluded.can_send_quotes`,
		r)
	if err != nil {
		return fmt.Errorf("upsert workshop role: %w", err)
	}
	return nil
}

// GetRole returns the role a user holds at a workshop, or ErrNotFound
// when the user has no membership there.
func (db *DB) GetRole(ctx context.Context, workshopID, userID string) (*models.WorkshopRole, error) {
	var r models.WorkshopRole
	err := db.GetContext(ctx, &r, `
		SELECT workshop_id, user_id, role, can_send_quotes, created_at
		FROM workshop_roles WHERE workshop_id = ? AND user_id = ?`,
		workshopID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workshop role: %w", err)
	}
	return &r, nil
}
