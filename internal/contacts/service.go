package contacts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

// Service handles the contact directory.
type Service struct {
	contactRepo repository.ContactRepository
	logger      *slog.Logger
}

// NewService creates a new contact service.
func NewService(contactRepo repository.ContactRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		contactRepo: contactRepo,
		logger:      logger,
	}
}

// CreateContactRequest represents contact creation parameters.
type CreateContactRequest struct {
	Name     string
	Phone    string
	Note     string
	Priority int
}

// CreateContact adds a directory entry.
func (s *Service) CreateContact(ctx context.Context, req CreateContactRequest) (*entity.Contact, error) {
	name := strings.TrimSpace(req.Name)
	v := common.NewValidator().
		Field("name", name, common.Required, common.MaxLength(32)).
		Field("phone", req.Phone, common.MaxLength(32))
	if v.HasErrors() {
		return nil, status.Error(codes.InvalidArgument, v.ErrorMessage())
	}

	phone := strings.TrimSpace(req.Phone)
	note := strings.TrimSpace(req.Note)
	phonePtr := &phone
	notePtr := &note
	if phone == "" {
		phonePtr = nil
	}
	if note == "" {
		notePtr = nil
	}

	c, err := s.contactRepo.Create(ctx, &entity.Contact{
		Name:     name,
		Phone:    phonePtr,
		Note:     notePtr,
		Priority: req.Priority,
	})
	if err != nil {
		s.logger.Error("failed to create contact", "name", name, "error", err)
		return nil, common.ToStatus(err)
	}
	s.logger.Info("contact created", "id", c.ID, "name", c.Name)
	return c, nil
}

// ListContacts returns the directory by priority.
func (s *Service) ListContacts(ctx context.Context) ([]*entity.Contact, error) {
	list, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list contacts: %v", err)
	}
	return list, nil
}

// GetContact looks a contact up by name.
func (s *Service) GetContact(ctx context.Context, name string) (*entity.Contact, error) {
	if strings.TrimSpace(name) == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	c, err := s.contactRepo.GetByName(ctx, name)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return c, nil
}

// DeleteContact removes a contact by name.
func (s *Service) DeleteContact(ctx context.Context, name string) error {
	c, err := s.GetContact(ctx, name)
	if err != nil {
		return err
	}
	if err := s.contactRepo.Delete(ctx, c.ID); err != nil {
		return common.ToStatus(err)
	}
	s.logger.Info("contact deleted", "name", c.Name)
	return nil
}

// Names returns the directory names for the analyzer.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	names, err := s.contactRepo.Names(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "list contacts: %v", err)
	}
	return names, nil
}

// Seed creates every name that is not in the directory yet. Existing names are kept.
func (s *Service) Seed(ctx context.Context, names []string) (int, error) {
	created := 0
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		// earlier entries win ties in the analyzer, so they get higher priority
		_, err := s.contactRepo.Create(ctx, &entity.Contact{Name: name, Priority: len(names) - i})
		switch {
		case err == nil:
			created++
		case errors.Is(err, common.ErrConflict):
		default:
			return created, err
		}
	}
	if created > 0 {
		s.logger.Info("contact directory seeded", "created", created)
	}
	return created, nil
}
