// Package store persists email templates.
package store

import (
	"context"
	"errors"

	"github.com/shineum/eml-studio/internal/email"
)

// ErrNotFound is returned when a template does not exist.
var ErrNotFound = errors.New("template not found")

// ErrInvalidTemplate is returned when a template fails validation before it
// reaches the database.
var ErrInvalidTemplate = errors.New("invalid template")

// Store defines the persistence interface for templates.
type Store interface {
	CreateTemplate(ctx context.Context, t email.Template) (*email.Template, error)
	UpdateTemplate(ctx context.Context, t email.Template) (*email.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	GetTemplate(ctx context.Context, id string) (*email.Template, error)

	// ListVisibleTo returns the templates owned by ownerID plus the team
	// templates shared with teamID, most recently updated first. An empty
	// teamID matches no team templates.
	ListVisibleTo(ctx context.Context, ownerID, teamID string) ([]email.Template, error)
}
