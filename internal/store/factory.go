package store

import (
	"github.com/arangodb/go-driver/v2/arangodb"
)

type Stores struct {
	db arangodb.Database
}

func NewStores(db arangodb.Database) *Stores {
	return &Stores{db: db}
}

func (s *Stores) Institutions() InstitutionStore {
	return newInstitutionStore(s.db)
}

func (s *Stores) OrphanedUsers() OrphanedUserStore {
	return newOrphanedUserStore(s.db)
}
