package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const projectColumns = `id, title, description, category, thumbnail, images, tags, links, sort_order, created_at, updated_at`

type Links struct {
	GitHub  string `json:"github,omitempty"`
	Live    string `json:"live,omitempty"`
	YouTube string `json:"youtube,omitempty"`
}

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Thumbnail   string    `json:"thumbnail"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	Links       Links     `json:"links"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectInput is the caller-supplied part of a new project.
type ProjectInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	Links       Links    `json:"links"`
}

// ProjectPatch holds the fields to change; nil fields are left alone.
type ProjectPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Thumbnail   *string   `json:"thumbnail"`
	Images      *[]string `json:"images"`
	Tags        *[]string `json:"tags"`
	Links       *Links    `json:"links"`
}

func scanProject(row scanner) (Project, error) {
	var p Project
	var images, tags, links string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Thumbnail,
		&images, &tags, &links, &p.Order, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if p.Images, err = decodeList(images); err != nil {
		return p, err
	}
	if p.Tags, err = decodeList(tags); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(links), &p.Links); err != nil {
		return p, fmt.Errorf("decoding links: %w", err)
	}
	return p, nil
}

// Projects lists projects in display order, optionally only one category.
func (s *Store) Projects(ctx context.Context, category string) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if category != "" && !strings.EqualFold(category, "all") {
		query += ` WHERE category = ? COLLATE NOCASE`
		args = append(args, category)
	}
	query += ` ORDER BY sort_order, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Project returns one project by id.
func (s *Store) Project(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// CreateProject stores a new project at the end of the display order.
func (s *Store) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Project{}, fmt.Errorf("%w: project title is required", ErrInvalidInput)
	}

	now := s.now()
	p := Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Thumbnail:   in.Thumbnail,
		Images:      nonNil(in.Images),
		Tags:        nonNil(in.Tags),
		Links:       in.Links,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	links, _ := json.Marshal(p.Links)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		order, err := nextOrder(ctx, tx, "projects")
		if err != nil {
			return err
		}
		p.Order = order
		_, err = tx.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.Category, p.Thumbnail,
			encodeList(p.Images), encodeList(p.Tags), string(links), p.Order, p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		return Project{}, fmt.Errorf("creating project: %w", err)
	}

	s.log.Info().Str("id", p.ID).Str("title", p.Title).Msg("project created")
	return p, nil
}

// UpdateProject applies patch to the project with id.
func (s *Store) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	p, err := s.Project(ctx, id)
	if err != nil {
		return p, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return p, fmt.Errorf("%w: project title is required", ErrInvalidInput)
		}
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Thumbnail != nil {
		p.Thumbnail = *patch.Thumbnail
	}
	if patch.Images != nil {
		p.Images = nonNil(*patch.Images)
	}
	if patch.Tags != nil {
		p.Tags = nonNil(*patch.Tags)
	}
	if patch.Links != nil {
		p.Links = *patch.Links
	}
	p.UpdatedAt = s.now()
	links, _ := json.Marshal(p.Links)

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects
		SET title = ?, description = ?, category = ?, thumbnail = ?, images = ?, tags = ?, links = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Description, p.Category, p.Thumbnail,
		encodeList(p.Images), encodeList(p.Tags), string(links), p.UpdatedAt, p.ID)
	if err != nil {
		return p, fmt.Errorf("updating project %s: %w", id, err)
	}
	return p, nil
}

// DeleteProject removes a project and closes the gap in the display order.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.deleteAndRenumber(ctx, "projects", id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	s.log.Info().Str("id", id).Msg("project deleted")
	return nil
}

// MoveProject drops project active onto the position of project over.
func (s *Store) MoveProject(ctx context.Context, active, over string) ([]Project, error) {
	if err := s.move(ctx, "projects", active, over); err != nil {
		return nil, err
	}
	return s.Projects(ctx, "")
}

// ReorderProjects sets the display order to ids, which must name every
// project exactly once.
func (s *Store) ReorderProjects(ctx context.Context, ids []string) ([]Project, error) {
	if err := s.reorder(ctx, "projects", ids); err != nil {
		return nil, err
	}
	return s.Projects(ctx, "")
}

// ProjectCategories returns the distinct non-empty categories in use.
func (s *Store) ProjectCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM projects WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
