package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/phonginreallife/sentinel/actions"
	"github.com/phonginreallife/sentinel/docstore"
)

const actionNameField = "action_name"

type ActionService struct {
	Store      docstore.Store
	Collection string

	// Now and Send are replaceable in tests.
	Now  func() time.Time
	Send actions.Sender

	logger hclog.Logger
}

func NewActionService(store docstore.Store, collection string, logger hclog.Logger) *ActionService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ActionService{
		Store:      store,
		Collection: collection,
		Now:        time.Now,
		logger:     logger.Named("actions"),
	}
}

// ListActions returns every action sorted by name.
func (s *ActionService) ListActions(ctx context.Context, asc bool) ([]actions.Record, error) {
	docs, err := s.Store.Search(ctx, s.Collection, docstore.Query{
		SortField:  actionNameField,
		Descending: !asc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}

	out := make([]actions.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, withKey(doc))
	}
	return out, nil
}

// GetAction returns the action stored under key.
func (s *ActionService) GetAction(ctx context.Context, key string) (actions.Record, error) {
	doc, err := s.Store.Get(ctx, s.Collection, key)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, notFound("Action with key '%s' does not exist", key)
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return withKey(doc), nil
}

// CreateAction validates env against its variant and stores it under a new key.
// createdBy, when set, overrides the client-supplied created_by.
func (s *ActionService) CreateAction(ctx context.Context, env actions.Envelope, createdBy string) (actions.Record, error) {
	env.CreateDate, env.ModifiedDate = "", ""
	record, err := actions.Build(env)
	if err != nil {
		return nil, err
	}

	name := env.ActionName
	if err := s.ensureUniqueName(ctx, name); err != nil {
		return nil, err
	}

	now := s.timestamp()
	record["create_date"] = now
	record["modified_date"] = now
	if createdBy != "" {
		record["created_by"] = createdBy
	}

	key := uuid.New().String()
	if _, err := s.Store.Index(ctx, s.Collection, key, record, docstore.RefreshWaitFor); err != nil {
		if docstore.IsConflict(err) {
			return nil, conflict("Action '%s' already exists", name)
		}
		return nil, fmt.Errorf("failed to create action: %w", err)
	}

	s.logger.Info("action created", "key", key, "name", name, "type", env.ActionType)
	record["key"] = key
	return record, nil
}

// UpdateAction replaces the action under key, keeping its creation audit fields.
func (s *ActionService) UpdateAction(ctx context.Context, key string, env actions.Envelope) (actions.Record, error) {
	env.CreateDate, env.ModifiedDate = "", ""
	record, err := actions.Build(env)
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.Get(ctx, s.Collection, key)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, notFound("Action with key '%s' does not exist", key)
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	if existingName, _ := existing.Source[actionNameField].(string); existingName != env.ActionName {
		if err := s.ensureUniqueName(ctx, env.ActionName); err != nil {
			return nil, err
		}
	}

	for _, field := range []string{"create_date", "created_by"} {
		if v, ok := existing.Source[field]; ok {
			record[field] = v
		} else {
			delete(record, field)
		}
	}
	record["modified_date"] = s.timestamp()

	if _, err := s.Store.Index(ctx, s.Collection, key, record, docstore.RefreshWaitFor); err != nil {
		if docstore.IsConflict(err) {
			return nil, conflict("Action '%s' already exists", env.ActionName)
		}
		return nil, fmt.Errorf("failed to update action: %w", err)
	}

	s.logger.Info("action updated", "key", key, "name", env.ActionName)
	record["key"] = key
	return record, nil
}

func (s *ActionService) DeleteAction(ctx context.Context, key string) error {
	if err := s.Store.Delete(ctx, s.Collection, key, docstore.RefreshWaitFor); err != nil {
		if docstore.IsNotFound(err) {
			return notFound("Action with key '%s' does not exist", key)
		}
		return fmt.Errorf("failed to delete action: %w", err)
	}
	s.logger.Info("action deleted", "key", key)
	return nil
}

// Schemas lists the form schema of every registered action type.
func (s *ActionService) Schemas() []actions.Schema {
	return actions.Schemas()
}

// TestAction sends a test message through the stored action's channel.
func (s *ActionService) TestAction(ctx context.Context, key string) error {
	record, err := s.GetAction(ctx, key)
	if err != nil {
		return err
	}

	action, err := actions.FromRecord(record)
	if err != nil {
		return fmt.Errorf("stored action %s is invalid: %w", key, err)
	}

	name, _ := record[actionNameField].(string)
	msg := fmt.Sprintf("Test notification from action '%s'", name)
	if err := actions.Notify(action, msg, s.Send); err != nil {
		s.logger.Warn("test notification failed", "key", key, "error", err)
		return upstream(err, "Failed to send test notification for action '%s'", name)
	}
	return nil
}

func (s *ActionService) ensureUniqueName(ctx context.Context, name string) error {
	docs, err := s.Store.Search(ctx, s.Collection, docstore.Query{Field: actionNameField, Value: name, Limit: 1})
	if err != nil {
		return fmt.Errorf("failed to check action name: %w", err)
	}
	if len(docs) > 0 {
		return conflict("Action '%s' already exists", name)
	}
	return nil
}

func (s *ActionService) timestamp() string {
	return s.Now().UTC().Format(time.RFC3339Nano)
}

func withKey(doc docstore.Document) actions.Record {
	record := make(actions.Record, len(doc.Source)+1)
	for k, v := range doc.Source {
		record[k] = v
	}
	record["key"] = doc.ID
	return record
}
