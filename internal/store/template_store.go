package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/eml-studio/internal/email"
)

// templateRow mirrors the templates table. Placeholders are stored as a JSON
// array.
type templateRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	TeamID       *string   `db:"team_id"`
	FolderID     *string   `db:"folder_id"`
	Name         string    `db:"name"`
	FromName     string    `db:"from_name"`
	FromEmail    string    `db:"from_email"`
	Recipients   string    `db:"recipients"`
	Cc           string    `db:"cc"`
	Bcc          string    `db:"bcc"`
	Subject      string    `db:"subject"`
	Body         string    `db:"body"`
	Placeholders string    `db:"placeholders"`
	Priority     string    `db:"priority"`
	Visibility   string    `db:"visibility"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const templateColumns = `id, user_id, team_id, folder_id, name, from_name, from_email,
	recipients, cc, bcc, subject, body, placeholders, priority, visibility,
	created_at, updated_at`

// CreateTemplate inserts a new template. It assigns the ID and timestamps and
// fills in the default priority and visibility.
func (s *SQLiteStore) CreateTemplate(ctx context.Context, t email.Template) (*email.Template, error) {
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := normalize(&t); err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.UserID) == "" {
		return nil, fmt.Errorf("%w: owner must not be empty", ErrInvalidTemplate)
	}

	placeholders, err := encodePlaceholders(t.Placeholders)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TeamID, t.FolderID, t.Name, t.FromName, t.FromEmail,
		t.Recipients, t.Cc, t.Bcc, t.Subject, t.Body, placeholders,
		string(t.Priority), string(t.Visibility),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating template: %w", err)
	}
	return &t, nil
}

// UpdateTemplate replaces the editable fields of an existing template. The
// owner and creation time never change.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, t email.Template) (*email.Template, error) {
	if err := normalize(&t); err != nil {
		return nil, err
	}

	placeholders, err := encodePlaceholders(t.Placeholders)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE templates SET
			team_id = ?, folder_id = ?, name = ?, from_name = ?, from_email = ?,
			recipients = ?, cc = ?, bcc = ?, subject = ?, body = ?,
			placeholders = ?, priority = ?, visibility = ?, updated_at = ?
		WHERE id = ?`,
		t.TeamID, t.FolderID, t.Name, t.FromName, t.FromEmail,
		t.Recipients, t.Cc, t.Bcc, t.Subject, t.Body,
		placeholders, string(t.Priority), string(t.Visibility), time.Now().UTC(),
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating template %s: %w", t.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, fmt.Errorf("template %s: %w", t.ID, ErrNotFound)
	}
	return s.GetTemplate(ctx, t.ID)
}

// DeleteTemplate removes a template by ID.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTemplate retrieves a single template by ID.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*email.Template, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, "SELECT "+templateColumns+" FROM templates WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", id, err)
	}

	t, err := row.template()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListVisibleTo returns the templates ownerID may see.
func (s *SQLiteStore) ListVisibleTo(ctx context.Context, ownerID, teamID string) ([]email.Template, error) {
	var rows []templateRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+templateColumns+` FROM templates
		WHERE user_id = ?
			OR (visibility = 'team' AND team_id IS NOT NULL AND team_id <> '' AND team_id = ?)
		ORDER BY updated_at DESC, name ASC`,
		ownerID, teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	templates := make([]email.Template, 0, len(rows))
	for _, row := range rows {
		t, err := row.template()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// normalize validates t and applies the defaults shared by create and update.
func normalize(t *email.Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidTemplate)
	}

	if t.Priority == "" {
		t.Priority = email.PriorityNormal
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTemplate, t.Priority)
	}

	if t.Visibility == "" {
		t.Visibility = email.VisibilityPersonal
	}
	if !t.Visibility.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalidTemplate, t.Visibility)
	}
	if t.Visibility == email.VisibilityTeam && (t.TeamID == nil || *t.TeamID == "") {
		return fmt.Errorf("%w: team visibility requires a team", ErrInvalidTemplate)
	}

	if t.Placeholders == nil {
		t.Placeholders = []email.Placeholder{}
	}
	return nil
}

func encodePlaceholders(p []email.Placeholder) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding placeholders: %w", err)
	}
	return string(data), nil
}

func (r templateRow) template() (email.Template, error) {
	t := email.Template{
		ID:         r.ID,
		UserID:     r.UserID,
		TeamID:     r.TeamID,
		FolderID:   r.FolderID,
		Name:       r.Name,
		FromName:   r.FromName,
		FromEmail:  r.FromEmail,
		Recipients: r.Recipients,
		Cc:         r.Cc,
		Bcc:        r.Bcc,
		Subject:    r.Subject,
		Body:       r.Body,
		Priority:   email.Priority(r.Priority),
		Visibility: email.Visibility(r.Visibility),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.Placeholders), &t.Placeholders); err != nil {
		return email.Template{}, fmt.Errorf("decoding placeholders for template %s: %w", r.ID, err)
	}
	if t.Placeholders == nil {
		t.Placeholders = []email.Placeholder{}
	}
	return t, nil
}
