package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/psychotest/psychotest/internal/catalog"
)

// Service implements the therapist-side write operations: growing the roster
// and assigning tests to rostered clients.
type Service struct {
	repo  Repository
	tests catalog.Repository
}

// NewService creates a new assignment Service.
func NewService(repo Repository, tests catalog.Repository) *Service {
	return &Service{repo: repo, tests: tests}
}

// AddClient puts the client registered under email on the therapist's roster.
func (s *Service) AddClient(ctx context.Context, therapistID uuid.UUID, email string, notes *string) (*RosterEntry, error) {
	clientID, err := s.repo.FindClientByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	e := &RosterEntry{
		TherapistID: therapistID,
		ClientID:    clientID,
		Notes:       notes,
	}
	if err := s.repo.AddToRoster(ctx, e); err != nil {
		return nil, err
	}

	slog.Info("client added to roster", "therapistId", therapistID, "clientId", clientID)
	return e, nil
}

// Assign creates an assignment of testID to clientID. The client must be on
// the therapist's roster and the test must be active.
func (s *Service) Assign(ctx context.Context, therapistID, clientID, testID uuid.UUID, dueDate *time.Time) (*Assignment, error) {
	ok, err := s.repo.OnRoster(ctx, therapistID, clientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrClientNotOnRoster
	}

	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, catalog.ErrTestNotFound) {
			return nil, ErrTestUnavailable
		}
		return nil, fmt.Errorf("loading test: %w", err)
	}
	if !test.IsActive {
		return nil, ErrTestUnavailable
	}

	a := &Assignment{
		TherapistID: therapistID,
		ClientID:    clientID,
		TestID:      testID,
		Status:      StatusAssigned,
		DueDate:     dueDate,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	slog.Info("test assigned", "assignmentId", a.ID, "therapistId", therapistID, "testId", testID)
	return a, nil
}

// SetStatus moves one of the therapist's assignments to status.
func (s *Service) SetStatus(ctx context.Context, therapistID, id uuid.UUID, status Status) (*Assignment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return s.repo.UpdateStatus(ctx, id, therapistID, status)
}
