package services

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"

	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/docstore"
)

// UserService reads the users written by the external auth system.
type UserService struct {
	Store      docstore.Store
	Collection string

	logger hclog.Logger
}

func NewUserService(store docstore.Store, collection string, logger hclog.Logger) *UserService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &UserService{Store: store, Collection: collection, logger: logger.Named("users")}
}

// ListUsers returns the public projection of every stored user.
func (s *UserService) ListUsers(ctx context.Context) ([]db.PublicUser, error) {
	docs, err := s.Store.Search(ctx, s.Collection, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]db.PublicUser, 0, len(docs))
	for _, doc := range docs {
		user, err := decodeUser(doc.Source)
		if err != nil {
			s.logger.Warn("skipping undecodable user", "key", doc.ID, "error", err)
			continue
		}
		users = append(users, db.PublicUser{
			Email:       user.Email,
			IsActive:    user.IsActive,
			IsSuperuser: user.IsSuperuser,
			IsVerified:  user.IsVerified,
		})
	}
	return users, nil
}

// GetUser returns the full user record under key.
func (s *UserService) GetUser(ctx context.Context, key string) (db.User, error) {
	doc, err := s.Store.Get(ctx, s.Collection, key)
	if err != nil {
		if docstore.IsNotFound(err) {
			return db.User{}, notFound("User with key '%s' does not exist", key)
		}
		return db.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return decodeUser(doc.Source)
}

func decodeUser(source map[string]interface{}) (db.User, error) {
	var user db.User
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &user,
	})
	if err != nil {
		return db.User{}, err
	}
	if err := decoder.Decode(source); err != nil {
		return db.User{}, fmt.Errorf("failed to decode user: %w", err)
	}
	return user, nil
}
