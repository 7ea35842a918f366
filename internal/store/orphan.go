package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"campuskit.app/institution-service/internal/model"
)

type orphanedUserStore struct {
	db arangodb.Database
}

func newOrphanedUserStore(db arangodb.Database) OrphanedUserStore {
	return &orphanedUserStore{db: db}
}

func (s *orphanedUserStore) Create(ctx context.Context, orphan *model.OrphanedUser) error {
	orphan.CreatedAt = time.Now().UTC()

	doc := struct {
		Key string `json:"_key"`
		model.OrphanedUser
	}{
		Key:          strconv.FormatInt(orphan.ID, 10),
		OrphanedUser: *orphan,
	}

	query := `INSERT @doc IN orphaned_users RETURN NEW`
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{"doc": doc},
	})
	if err != nil {
		return fmt.Errorf("insert orphaned user: %w", err)
	}
	defer cursor.Close()

	return nil
}

func (s *orphanedUserStore) ListUnresolved(ctx context.Context, limit int) ([]model.OrphanedUser, error) {
	query := `
		FOR o IN orphaned_users
			FILTER o.resolved_at == null
			SORT o.created_at ASC
			LIMIT @limit
			RETURN o
	`

	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{"limit": limit},
	})
	if err != nil {
		return nil, fmt.Errorf("list orphaned users: %w", err)
	}
	defer cursor.Close()

	results := []model.OrphanedUser{}
	for cursor.HasMore() {
		var orphan model.OrphanedUser
		if _, err := cursor.ReadDocument(ctx, &orphan); err != nil {
			return nil, fmt.Errorf("read orphaned user: %w", err)
		}
		results = append(results, orphan)
	}

	return results, nil
}

func (s *orphanedUserStore) RecordAttempt(ctx context.Context, id int64, resolved bool) error {
	query := `
		FOR o IN orphaned_users
			FILTER o.id == @id
			UPDATE o WITH {
				attempts: o.attempts + 1,
				resolved_at: @resolved ? @now : o.resolved_at
			} IN orphaned_users
			RETURN NEW
	`

	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{
			"id":       id,
			"resolved": resolved,
			"now":      time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("record orphan attempt: %w", err)
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return ErrNotFound
	}

	return nil
}
