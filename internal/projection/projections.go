package projection

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/dispatch"
	"github.com/aevon-lab/project-ledger/internal/project"
	"github.com/aevon-lab/project-ledger/internal/user"
)

// Subscriber names. They key stored offsets, so renaming one replays its history.
const (
	ProjectProjection     = "project-projection"
	ProjectUserProjection = "project-user-projection"
	UserProjection        = "user-projection"
	EventBusProjection    = "event-bus"
)

// ProjectHandlers maintains the project, member, status, task and assignment tables.
func ProjectHandlers(store Store) dispatch.HandlerSet {
	set := dispatch.HandlerSet{}

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.ProjectCreated) error {
		if err := store.UpsertProject(ctx, ProjectRow{
			ID:        evt.AggregateID,
			Title:     p.Title,
			CreatorID: p.CreatorID,
			CreatedAt: v1.Millis(evt.CreatedAt),
		}); err != nil {
			return err
		}
		if err := store.UpsertMember(ctx, MemberRow{
			ID:        p.CreatorMemberID,
			ProjectID: evt.AggregateID,
			UserID:    p.CreatorID,
		}); err != nil {
			return err
		}
		return store.UpsertStatus(ctx, StatusRow{
			ID:        p.DefaultStatusID,
			ProjectID: evt.AggregateID,
			Text:      project.DefaultStatusText,
			Color:     project.DefaultStatusColor,
		})
	})

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.TaskCreated) error {
		return store.UpsertTask(ctx, TaskRow{
			ID:        p.TaskID,
			ProjectID: evt.AggregateID,
			Title:     p.TaskName,
			StatusID:  p.StatusID,
		})
	})

	dispatch.On(set, func(ctx context.Context, _ eventsource.Event, p project.UserAssigned) error {
		return store.UpsertAssignment(ctx, AssignmentRow{
			ID:       p.AssignmentID,
			TaskID:   p.TaskID,
			MemberID: p.MemberID,
		})
	})

	dispatch.On(set, func(ctx context.Context, _ eventsource.Event, p project.TaskStatusChanged) error {
		return store.UpdateTaskStatus(ctx, p.TaskID, p.StatusID)
	})

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.TaskStatusCreated) error {
		return store.UpsertStatus(ctx, StatusRow{
			ID:        p.StatusID,
			ProjectID: evt.AggregateID,
			Text:      p.StatusText,
			Color:     p.StatusColor,
		})
	})

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.UserAddedToProject) error {
		return store.UpsertMember(ctx, MemberRow{
			ID:        p.MemberID,
			ProjectID: evt.AggregateID,
			UserID:    p.UserID,
		})
	})

	dispatch.On(set, func(ctx context.Context, _ eventsource.Event, p project.TaskTitleChanged) error {
		return store.UpdateTaskTitle(ctx, p.TaskID, p.Title)
	})

	dispatch.On(set, func(ctx context.Context, _ eventsource.Event, p project.TaskStatusDeleted) error {
		return store.DeleteStatus(ctx, p.StatusID)
	})

	return set
}

// ProjectUserHandlers maintains the user to project membership index.
// The title of a project is taken from its own ProjectCreated row, which this
// subscriber always applies before any membership event of the same project.
func ProjectUserHandlers(store Store) dispatch.HandlerSet {
	set := dispatch.HandlerSet{}

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.ProjectCreated) error {
		return store.UpsertUserProject(ctx, UserProjectRow{
			UserID:    p.CreatorID,
			ProjectID: evt.AggregateID,
			Title:     p.Title,
		})
	})

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p project.UserAddedToProject) error {
		title, err := store.UserProjectTitle(ctx, evt.AggregateID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("membership index has no creator row for project %s: %w", evt.AggregateID, err)
			}
			return err
		}
		return store.UpsertUserProject(ctx, UserProjectRow{
			UserID:    p.UserID,
			ProjectID: evt.AggregateID,
			Title:     title,
		})
	})

	return set
}

// UserHandlers maintains the users table. Password hashes are never projected.
func UserHandlers(store Store) dispatch.HandlerSet {
	set := dispatch.HandlerSet{}

	dispatch.On(set, func(ctx context.Context, evt eventsource.Event, p user.UserCreated) error {
		return store.UpsertUser(ctx, UserRow{
			ID:       evt.AggregateID,
			Username: p.Username,
			Realname: p.Realname,
		})
	})

	return set
}
