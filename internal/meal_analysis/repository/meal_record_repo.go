package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bloomi-app/bloomi-backend/internal/meal_analysis/domain"
)

// ErrDuplicateRecord is returned when a record id is saved twice.
var ErrDuplicateRecord = errors.New("meal record already exists")

const pqUniqueViolation = "23505"

// MealRecordRepository handles PostgreSQL operations for meal records
type MealRecordRepository struct {
	db *sql.DB
}

// NewMealRecordRepository creates a new MealRecordRepository
func NewMealRecordRepository(db *sql.DB) *MealRecordRepository {
	return &MealRecordRepository{db: db}
}

// Save inserts a new meal record
func (r *MealRecordRepository) Save(ctx context.Context, rec domain.MealRecord) error {
	query := `
		INSERT INTO meal_records (
			id, user_id, image_url, name, calories, carbs, protein, fat,
			serving_unit, serving_amount, confidence, advice,
			user_input_name, user_input_weight, notes, analyzed_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	// Handle nullable fields
	var inputName, notes sql.NullString
	var inputWeight sql.NullFloat64
	if rec.UserInputName != "" {
		inputName = sql.NullString{String: rec.UserInputName, Valid: true}
	}
	if rec.Notes != "" {
		notes = sql.NullString{String: rec.Notes, Valid: true}
	}
	if rec.UserInputWeight != nil {
		inputWeight = sql.NullFloat64{Float64: *rec.UserInputWeight, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.ImageURL,
		rec.Name,
		rec.Calories,
		rec.Macros.Carbs,
		rec.Macros.Protein,
		rec.Macros.Fat,
		rec.Serving.Unit,
		rec.Serving.Amount,
		rec.Confidence,
		rec.Advice,
		inputName,
		inputWeight,
		notes,
		rec.AnalyzedAt,
		rec.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateRecord, rec.ID)
		}
		return fmt.Errorf("failed to save meal record: %w", err)
	}
	return nil
}

// Delete removes a record by id. Deleting a missing record is not an error.
func (r *MealRecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM meal_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete meal record: %w", err)
	}
	return nil
}

const selectMealRecords = `
		SELECT id, user_id, image_url, name, calories, carbs, protein, fat,
		       serving_unit, serving_amount, confidence, advice,
		       user_input_name, user_input_weight, notes, analyzed_at, created_at
		FROM meal_records
`

// FindByUserAndDate lists a user's records for one calendar date
func (r *MealRecordRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) ([]domain.MealRecord, error) {
	query := selectMealRecords + `
		WHERE user_id = $1 AND analyzed_at = $2
		ORDER BY created_at ASC
	`
	return r.query(ctx, query, userID, domain.DateOf(date))
}

// FindByUserBetween lists a user's records analyzed within [from, to]
func (r *MealRecordRepository) FindByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.MealRecord, error) {
	query := selectMealRecords + `
		WHERE user_id = $1 AND analyzed_at BETWEEN $2 AND $3
		ORDER BY analyzed_at ASC, created_at ASC
	`
	return r.query(ctx, query, userID, domain.DateOf(from), domain.DateOf(to))
}

func (r *MealRecordRepository) query(ctx context.Context, query string, args ...any) ([]domain.MealRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal records: %w", err)
	}
	defer rows.Close()

	records := []domain.MealRecord{}
	for rows.Next() {
		var rec domain.MealRecord
		var inputName, notes sql.NullString
		var inputWeight sql.NullFloat64

		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.ImageURL,
			&rec.Name,
			&rec.Calories,
			&rec.Macros.Carbs,
			&rec.Macros.Protein,
			&rec.Macros.Fat,
			&rec.Serving.Unit,
			&rec.Serving.Amount,
			&rec.Confidence,
			&rec.Advice,
			&inputName,
			&inputWeight,
			&notes,
			&rec.AnalyzedAt,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal record: %w", err)
		}

		rec.UserInputName = inputName.String
		rec.Notes = notes.String
		if inputWeight.Valid {
			w := inputWeight.Float64
			rec.UserInputWeight = &w
		}
		rec.AnalyzedAt = domain.DateOf(rec.AnalyzedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal records: %w", err)
	}
	return records, nil
}
