package services

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/mapstructure"

	"github.com/phonginreallife/sentinel/db"
	"github.com/phonginreallife/sentinel/docstore"
)

const teamNameField = "team_name"

type TeamService struct {
	Store      docstore.Store
	Collection string
	Now        func() time.Time

	logger hclog.Logger
}

func NewTeamService(store docstore.Store, collection string, logger hclog.Logger) *TeamService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &TeamService{
		Store:      store,
		Collection: collection,
		Now:        time.Now,
		logger:     logger.Named("teams"),
	}
}

func (s *TeamService) ListTeams(ctx context.Context, asc bool) ([]db.TeamResponse, error) {
	docs, err := s.Store.Search(ctx, s.Collection, docstore.Query{
		SortField:  teamNameField,
		Descending: !asc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	teams := make([]db.TeamResponse, 0, len(docs))
	for _, doc := range docs {
		team, err := decodeTeam(doc.Source)
		if err != nil {
			s.logger.Warn("skipping undecodable team", "key", doc.ID, "error", err)
			continue
		}
		teams = append(teams, db.TeamResponse{Key: doc.ID, Team: team})
	}
	return teams, nil
}

func (s *TeamService) GetTeam(ctx context.Context, key string) (db.TeamResponse, error) {
	team, err := s.getTeam(ctx, key)
	if err != nil {
		return db.TeamResponse{}, err
	}
	return db.TeamResponse{Key: key, Team: team}, nil
}

// CreateTeam stores a new team. createdBy fills created_by when the body
// leaves it empty.
func (s *TeamService) CreateTeam(ctx context.Context, team db.Team, createdBy string) (db.TeamResponse, error) {
	if err := s.ensureUniqueName(ctx, team.TeamName); err != nil {
		return db.TeamResponse{}, err
	}

	now := s.timestamp()
	team.CreateDate = now
	team.ModifiedDate = now
	if team.CreatedBy == "" {
		team.CreatedBy = createdBy
	}

	key := uuid.New().String()
	if err := s.put(ctx, key, team); err != nil {
		return db.TeamResponse{}, err
	}

	s.logger.Info("team created", "key", key, "name", team.TeamName)
	return db.TeamResponse{Key: key, Team: team}, nil
}

// UpdateTeam replaces the team under key. A body identical to the stored
// team is returned as is, without a write.
func (s *TeamService) UpdateTeam(ctx context.Context, key string, team db.Team) (db.TeamResponse, error) {
	original, err := s.getTeam(ctx, key)
	if err != nil {
		return db.TeamResponse{}, err
	}

	if reflect.DeepEqual(team, original) {
		return db.TeamResponse{Key: key, Team: team}, nil
	}

	if team.TeamName != original.TeamName {
		if err := s.ensureUniqueName(ctx, team.TeamName); err != nil {
			return db.TeamResponse{}, err
		}
	}

	team.CreateDate = original.CreateDate
	team.CreatedBy = original.CreatedBy
	team.ModifiedDate = s.timestamp()

	if err := s.put(ctx, key, team); err != nil {
		return db.TeamResponse{}, err
	}

	s.logger.Info("team updated", "key", key, "name", team.TeamName)
	return db.TeamResponse{Key: key, Team: team}, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, key string) error {
	if err := s.Store.Delete(ctx, s.Collection, key, docstore.RefreshWaitFor); err != nil {
		if docstore.IsNotFound(err) {
			return notFound("Team with key '%s' does not exist", key)
		}
		return fmt.Errorf("failed to delete team: %w", err)
	}
	s.logger.Info("team deleted", "key", key)
	return nil
}

func (s *TeamService) getTeam(ctx context.Context, key string) (db.Team, error) {
	doc, err := s.Store.Get(ctx, s.Collection, key)
	if err != nil {
		if docstore.IsNotFound(err) {
			return db.Team{}, notFound("Team with key '%s' does not exist", key)
		}
		return db.Team{}, fmt.Errorf("failed to get team: %w", err)
	}
	return decodeTeam(doc.Source)
}

func (s *TeamService) put(ctx context.Context, key string, team db.Team) error {
	source, err := encodeTeam(team)
	if err != nil {
		return err
	}
	if _, err := s.Store.Index(ctx, s.Collection, key, source, docstore.RefreshWaitFor); err != nil {
		if docstore.IsConflict(err) {
			return conflict("Team '%s' already exists", team.TeamName)
		}
		return fmt.Errorf("failed to save team: %w", err)
	}
	return nil
}

func (s *TeamService) ensureUniqueName(ctx context.Context, name string) error {
	docs, err := s.Store.Search(ctx, s.Collection, docstore.Query{Field: teamNameField, Value: name, Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check team name: %w", err)
	}
	if len(docs) > 0 {
		return conflict("Team '%s' already exists", name)
	}
	return nil
}

func (s *TeamService) timestamp() string {
	return s.Now().UTC().Format(time.RFC3339Nano)
}

func decodeTeam(source map[string]interface{}) (db.Team, error) {
	var team db.Team
	if err := mapstructure.Decode(source, &team); err != nil {
		return db.Team{}, fmt.Errorf("failed to decode team: %w", err)
	}
	if team.Members == nil {
		team.Members = []interface{}{}
	}
	return team, nil
}

func encodeTeam(team db.Team) (map[string]interface{}, error) {
	raw, err := json.Marshal(team)
	if err != nil {
		return nil, fmt.Errorf("failed to encode team: %w", err)
	}
	source := make(map[string]interface{})
	if err := json.Unmarshal(raw, &source); err != nil {
		return nil, fmt.Errorf("failed to encode team: %w", err)
	}
	return source, nil
}
