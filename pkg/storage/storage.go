package storage

import (
	"context"
	"errors"

	"github.com/ogulcanaydogan/project-deadline-monitor/pkg/model"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence layer for projects and their updates.
type Storage interface {
	// SaveProject creates or replaces a project together with its milestones.
	SaveProject(ctx context.Context, project *model.Project) error

	// GetProject retrieves a project by ID.
	GetProject(ctx context.Context, id string) (*model.Project, error)

	// ListProjects returns every stored project ordered by ID.
	ListProjects(ctx context.Context) ([]model.Project, error)

	// DeleteProject removes a project, its milestones and its updates.
	DeleteProject(ctx context.Context, id string) error

	// AddUpdate records a note against an existing project.
	AddUpdate(ctx context.Context, update *model.ProjectUpdate) error

	// ListUpdates returns a project's updates, newest first.
	ListUpdates(ctx context.Context, projectID string) ([]model.ProjectUpdate, error)

	// Close releases resources.
	Close() error
}
