package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"campuskit.app/institution-service/internal/model"
)

type institutionStore struct {
	db arangodb.Database
}

func newInstitutionStore(db arangodb.Database) InstitutionStore {
	return &institutionStore{db: db}
}

func (s *institutionStore) GetByID(ctx context.Context, id int64) (*model.Institution, error) {
	query := `
		FOR i IN institutions
			FILTER i.id == @id
			LIMIT 1
			RETURN i
	`

	inst, err := s.queryOne(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *institutionStore) Create(ctx context.Context, inst *model.Institution) error {
	now := time.Now().UTC()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	doc := toInstitutionDoc(inst)

	query := `INSERT @doc IN institutions RETURN NEW`
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{"doc": doc},
	})
	if err != nil {
		return fmt.Errorf("insert institution: %w", err)
	}
	defer cursor.Close()

	return nil
}

func (s *institutionStore) Update(ctx context.Context, inst *model.Institution) error {
	// Compare-and-set against the caller's snapshot: if another writer
	// bumped updated_at since the read, the whole-document write would
	// silently drop their changes, so it is rejected instead.
	query := `
		FOR i IN institutions
			FILTER i.id == @id AND i.updated_at == @expected
			UPDATE i WITH {
				name: @name,
				address: @address,
				classrooms: @classrooms,
				updated_at: @now
			} IN institutions
			RETURN NEW
	`

	updated, err := s.queryOne(ctx, query, map[string]any{
		"id":         inst.ID,
		"expected":   inst.UpdatedAt,
		"name":       inst.Name,
		"address":    inst.Address,
		"classrooms": inst.Classrooms,
		"now":        time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return s.classifyMiss(ctx, inst.ID, ErrConflict)
	}
	if err != nil {
		return err
	}

	*inst = *updated
	return nil
}

func (s *institutionStore) SetStatus(ctx context.Context, id int64, from, to model.Status) error {
	query := `
		FOR i IN institutions
			FILTER i.id == @id AND i.status == @from
			UPDATE i WITH { status: @to, updated_at: @now } IN institutions
			RETURN NEW
	`

	_, err := s.queryOne(ctx, query, map[string]any{
		"id":   id,
		"from": from,
		"to":   to,
		"now":  time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return s.classifyMiss(ctx, id, ErrInvalidTransition)
	}
	return err
}

func (s *institutionStore) Commit(ctx context.Context, id int64, userIDs []string) (*model.Institution, error) {
	// Compare-and-set on status: only a pending record can be committed.
	query := `
		FOR i IN institutions
			FILTER i.id == @id AND i.status == @pending
			UPDATE i WITH {
				status: @active,
				user_ids: @userIDs,
				updated_at: @now
			} IN institutions
			RETURN NEW
	`

	// AQL binds nil slices as null; the document field must stay an array.
	if userIDs == nil {
		userIDs = []string{}
	}

	inst, err := s.queryOne(ctx, query, map[string]any{
		"id":      id,
		"pending": model.StatusPending,
		"active":  model.StatusActive,
		"userIDs": userIDs,
		"now":     time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return nil, s.classifyMiss(ctx, id, ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}

	return inst, nil
}

func (s *institutionStore) MarkDeleted(ctx context.Context, id int64) error {
	// Cascade marks live classrooms deleted and remembers which ones the
	// cascade touched, so Restore can revive exactly those.
	query := `
		FOR i IN institutions
			FILTER i.id == @id AND i.status IN [@active, @inactive]
			UPDATE i WITH {
				status: @deleted,
				updated_at: @now,
				classrooms: (
					FOR c IN i.classrooms
						RETURN c.status IN [@active, @inactive]
							? MERGE(c, { status: @deleted, cascaded: true })
							: c
				)
			} IN institutions
			RETURN NEW
	`

	_, err := s.queryOne(ctx, query, map[string]any{
		"id":       id,
		"active":   model.StatusActive,
		"inactive": model.StatusInactive,
		"deleted":  model.StatusDeleted,
		"now":      time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return s.classifyMiss(ctx, id, ErrInvalidTransition)
	}
	return err
}

func (s *institutionStore) Restore(ctx context.Context, id int64) error {
	query := `
		FOR i IN institutions
			FILTER i.id == @id AND i.status == @deleted
			UPDATE i WITH {
				status: @inactive,
				updated_at: @now,
				classrooms: (
					FOR c IN i.classrooms
						RETURN c.cascaded == true
							? UNSET(MERGE(c, { status: @inactive }), "cascaded")
							: c
				)
			} IN institutions
			RETURN NEW
	`

	_, err := s.queryOne(ctx, query, map[string]any{
		"id":       id,
		"deleted":  model.StatusDeleted,
		"inactive": model.StatusInactive,
		"now":      time.Now().UTC(),
	})
	if errors.Is(err, ErrNotFound) {
		return s.classifyMiss(ctx, id, ErrInvalidTransition)
	}
	return err
}

func (s *institutionStore) HardDelete(ctx context.Context, id int64) error {
	query := `
		FOR i IN institutions
			FILTER i.id == @id
			REMOVE i IN institutions
			RETURN OLD
	`

	_, err := s.queryOne(ctx, query, map[string]any{"id": id})
	return err
}

func (s *institutionStore) ListByStatus(ctx context.Context, statuses []model.Status, limit, offset int) ([]model.Institution, error) {
	query := `
		FOR i IN institutions
			FILTER i.status IN @statuses
			SORT i.created_at ASC
			LIMIT @offset, @limit
			RETURN i
	`

	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]any{
			"statuses": statuses,
			"limit":    limit,
			"offset":   offset,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	defer cursor.Close()

	results := []model.Institution{}
	for cursor.HasMore() {
		var inst model.Institution
		if _, err := cursor.ReadDocument(ctx, &inst); err != nil {
			return nil, fmt.Errorf("read institution: %w", err)
		}
		results = append(results, inst)
	}

	return results, nil
}

// queryOne runs a query expected to produce at most one institution and
// returns ErrNotFound when it produces none.
func (s *institutionStore) queryOne(ctx context.Context, query string, bindVars map[string]any) (*model.Institution, error) {
	cursor, err := s.db.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("query institution: %w", err)
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, ErrNotFound
	}

	var inst model.Institution
	if _, err := cursor.ReadDocument(ctx, &inst); err != nil {
		return nil, fmt.Errorf("read institution: %w", err)
	}

	return &inst, nil
}

// classifyMiss distinguishes a missing document from one that rejected a
// compare-and-set update: status filters surface ErrInvalidTransition,
// snapshot filters surface ErrConflict.
func (s *institutionStore) classifyMiss(ctx context.Context, id int64, miss error) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return miss
}

// institutionDoc carries the ArangoDB document key alongside the model.
type institutionDoc struct {
	Key string `json:"_key"`
	model.Institution
}

func toInstitutionDoc(inst *model.Institution) institutionDoc {
	if inst.UserIDs == nil {
		inst.UserIDs = []string{}
	}
	if inst.Classrooms == nil {
		inst.Classrooms = []model.Classroom{}
	}
	return institutionDoc{
		Key:         strconv.FormatInt(inst.ID, 10),
		Institution: *inst,
	}
}
