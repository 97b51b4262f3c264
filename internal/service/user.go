package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"userapi/internal/model"
	"userapi/internal/repository"
)

var tracer = otel.Tracer("userapi/internal/service")

// UserService defines the use cases for handling users.
// It forwards to the repository and adds no validation or transformation.
type UserService interface {
	// ListUsers returns every stored user as a freshly allocated slice (never nil).
	ListUsers(ctx context.Context) ([]model.User, error)

	// SaveUser persists the user and returns the stored record.
	SaveUser(ctx context.Context, user *model.User) (*model.User, error)
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.ListUsers")
	defer span.End()

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	out := make([]model.User, len(users))
	copy(out, users)
	span.SetAttributes(attribute.Int("users.count", len(out)))
	return out, nil
}

func (s *userService) SaveUser(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.SaveUser")
	defer span.End()

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("user.id", saved.ID))
	return saved, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
