package projection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// OffsetReader reports how far a subscriber has projected an aggregate.
type OffsetReader interface {
	Offset(ctx context.Context, subscriber string, aggregateID uuid.UUID) (int64, error)
}

// Service implements the read-model query layer.
type Service struct {
	store   Store
	offsets OffsetReader
}

// NewService creates a query service over store. offsets supplies the projected
// version returned with each view.
func NewService(store Store, offsets OffsetReader) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	if offsets == nil {
		panic("projection: offset reader must not be nil")
	}
	return &Service{store: store, offsets: offsets}
}

// Project returns the projected view of a project.
//
// The offset is read before the rows. Offsets are committed only after the rows
// of that version are written, so the data is at least as new as the version
// reported with it.
func (s *Service) Project(ctx context.Context, projectID uuid.UUID) (*Versioned[*ProjectView], error) {
	version, err := s.offsets.Offset(ctx, ProjectProjection, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to read projection offset: %w", err)
	}
	view, err := s.store.ProjectView(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Versioned[*ProjectView]{Version: version, Data: view}, nil
}

// User returns the projected user row. Same read order as Project.
func (s *Service) User(ctx context.Context, userID uuid.UUID) (*Versioned[*UserRow], error) {
	version, err := s.offsets.Offset(ctx, UserProjection, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read projection offset: %w", err)
	}
	row, err := s.store.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Versioned[*UserRow]{Version: version, Data: row}, nil
}

// UserProjects lists the projects userID belongs to, oldest membership first.
func (s *Service) UserProjects(ctx context.Context, userID uuid.UUID) ([]UserProjectRow, error) {
	return s.store.UserProjects(ctx, userID)
}
