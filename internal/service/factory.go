package service

import (
	"campuskit.app/institution-service/internal/provisioning"
	"campuskit.app/institution-service/internal/store"
)

type Services struct {
	stores *store.Stores
	users  provisioning.Client
}

func NewServices(stores *store.Stores, users provisioning.Client) *Services {
	return &Services{
		stores: stores,
		users:  users,
	}
}

func (s *Services) Institutions() InstitutionService {
	return NewInstitutionService(s.stores.Institutions(), s.stores.OrphanedUsers(), s.users)
}
