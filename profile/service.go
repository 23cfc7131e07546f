package profile

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/trails-auth/apiclient"
	"github.com/jrsteele09/trails-auth/authmodel"
	"github.com/jrsteele09/trails-auth/internal/utils"
	"github.com/jrsteele09/trails-auth/users"
)

const ProfilePath = "/users/profile"

// ProfileStore is the part of sessions.Store that profile changes are committed to.
type ProfileStore interface {
	User() *users.User
	UpdateUser(ctx context.Context, user *users.User) error
}

// Requester is satisfied by *apiclient.Client.
type Requester interface {
	Get(ctx context.Context, endpoint string, out any) error
	Put(ctx context.Context, endpoint string, body, out any) error
}

var _ Requester = (*apiclient.Client)(nil)

// ProfileUpdate holds the editable fields. Empty optional strings clear the field.
type ProfileUpdate struct {
	FirstName       string
	LastName        string
	PhoneNumber     string
	ProfileImageURL string
}

// Service keeps the session's profile in step with the backend. The backend's
// response always replaces the stored profile wholesale.
type Service struct {
	client Requester
	store  ProfileStore
}

func NewService(client Requester, store ProfileStore) (*Service, error) {
	if client == nil {
		return nil, errors.New("[profile.NewService] client is required")
	}
	if store == nil {
		return nil, errors.New("[profile.NewService] store is required")
	}
	return &Service{client: client, store: store}, nil
}

// Refresh fetches the current profile and commits it to the session.
func (s *Service) Refresh(ctx context.Context) (*users.User, error) {
	var user users.User
	if err := s.client.Get(ctx, ProfilePath, &user); err != nil {
		return nil, err
	}
	return s.commit(ctx, &user)
}

// Update sends the edited profile and commits what the backend echoes back.
func (s *Service) Update(ctx context.Context, update ProfileUpdate) (*users.User, error) {
	current := s.store.User()
	if current == nil {
		return nil, authmodel.NewError(authmodel.KindUnauthorized, 0, apiclient.MsgNoToken)
	}
	if update.FirstName == "" || update.LastName == "" {
		return nil, authmodel.ValidationError("Please fill in all fields")
	}

	next := current.Clone()
	next.FirstName = update.FirstName
	next.LastName = update.LastName
	next.PhoneNumber = utils.OptionalString(update.PhoneNumber)
	next.ProfileImageURL = utils.OptionalString(update.ProfileImageURL)

	var echoed users.User
	if err := s.client.Put(ctx, ProfilePath, next, &echoed); err != nil {
		return nil, err
	}
	return s.commit(ctx, &echoed)
}

func (s *Service) commit(ctx context.Context, user *users.User) (*users.User, error) {
	if user.ID == "" {
		return nil, authmodel.NewError(authmodel.KindServer, 0, apiclient.MsgUnknown)
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.commit]")
	}
	return user, nil
}
