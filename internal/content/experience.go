package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const experienceColumns = `id, title, company, description, start_date, end_date, current, skills, sort_order, created_at, updated_at`

type Experience struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     *string   `json:"endDate"`
	Current     bool      `json:"current"`
	Skills      []string  `json:"skills"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ExperienceInput struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	Current     bool     `json:"current"`
	Skills      []string `json:"skills"`
}

// ExperiencePatch holds the fields to change. An empty EndDate clears it.
type ExperiencePatch struct {
	Title       *string   `json:"title"`
	Company     *string   `json:"company"`
	Description *string   `json:"description"`
	StartDate   *string   `json:"startDate"`
	EndDate     *string   `json:"endDate"`
	Current     *bool     `json:"current"`
	Skills      *[]string `json:"skills"`
}

func scanExperience(row scanner) (Experience, error) {
	var e Experience
	var end sql.NullString
	var skills string
	err := row.Scan(&e.ID, &e.Title, &e.Company, &e.Description, &e.StartDate,
		&end, &e.Current, &skills, &e.Order, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	if end.Valid {
		e.EndDate = &end.String
	}
	e.Skills, err = decodeList(skills)
	return e, err
}

// current entries never carry an end date
func normalizeEnd(end *string, current bool) sql.NullString {
	if current || end == nil || *end == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *end, Valid: true}
}

// Experiences lists experience entries in display order.
func (s *Store) Experiences(ctx context.Context) ([]Experience, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+experienceColumns+` FROM experience ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing experience: %w", err)
	}
	defer rows.Close()

	out := []Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning experience: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Experience(ctx context.Context, id string) (Experience, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+experienceColumns+` FROM experience WHERE id = ?`, id)
	e, err := scanExperience(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	return e, err
}

func (s *Store) CreateExperience(ctx context.Context, in ExperienceInput) (Experience, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Experience{}, fmt.Errorf("%w: experience title is required", ErrInvalidInput)
	}

	now := s.now()
	end := normalizeEnd(in.EndDate, in.Current)
	e := Experience{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Company:     in.Company,
		Description: in.Description,
		StartDate:   in.StartDate,
		Current:     in.Current,
		Skills:      nonNil(in.Skills),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if end.Valid {
		e.EndDate = &end.String
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := nextOrder(ctx, tx, "experience")
		if err != nil {
			return err
		}
		e.Order = order
		_, err = tx.ExecContext(ctx, `INSERT INTO experience (`+experienceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Title, e.Company, e.Description, e.StartDate, end, e.Current,
			encodeList(e.Skills), e.Order, e.CreatedAt, e.UpdatedAt)
		return err
	})
	if err != nil {
		return Experience{}, fmt.Errorf("creating experience: %w", err)
	}

	s.log.Info().Str("id", e.ID).Str("title", e.Title).Msg("experience created")
	return e, nil
}

func (s *Store) UpdateExperience(ctx context.Context, id string, patch ExperiencePatch) (Experience, error) {
	e, err := s.Experience(ctx, id)
	if err != nil {
		return e, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return e, fmt.Errorf("%w: experience title is required", ErrInvalidInput)
		}
		e.Title = *patch.Title
	}
	if patch.Company != nil {
		e.Company = *patch.Company
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.StartDate != nil {
		e.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		e.EndDate = patch.EndDate
	}
	if patch.Current != nil {
		e.Current = *patch.Current
	}
	if patch.Skills != nil {
		e.Skills = nonNil(*patch.Skills)
	}
	end := normalizeEnd(e.EndDate, e.Current)
	e.EndDate = nil
	if end.Valid {
		e.EndDate = &end.String
	}
	e.UpdatedAt = s.now()

	_, err = s.db.ExecContext(ctx, `
		UPDATE experience
		SET title = ?, company = ?, description = ?, start_date = ?, end_date = ?, current = ?, skills = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Company, e.Description, e.StartDate, end, e.Current, encodeList(e.Skills), e.UpdatedAt, e.ID)
	if err != nil {
		return e, fmt.Errorf("updating experience %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) DeleteExperience(ctx context.Context, id string) error {
	if err := s.deleteAndRenumber(ctx, "experience", id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting experience %s: %w", id, err)
	}
	s.log.Info().Str("id", id).Msg("experience deleted")
	return nil
}

func (s *Store) MoveExperience(ctx context.Context, active, over string) ([]Experience, error) {
	if err := s.move(ctx, "experience", active, over); err != nil {
		return nil, err
	}
	return s.Experiences(ctx)
}

func (s *Store) ReorderExperience(ctx context.Context, ids []string) ([]Experience, error) {
	if err := s.reorder(ctx, "experience", ids); err != nil {
		return nil, err
	}
	return s.Experiences(ctx)
}
