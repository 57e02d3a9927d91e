package services

import (
	"utok/internal/domain"
	"utok/internal/repos"
	"utok/internal/validate"
)

type CatalogService struct {
	Svcs  *repos.ServiceRepo
	Items *repos.ItemRepo
}

func NewCatalogService(svcs *repos.ServiceRepo, items *repos.ItemRepo) *CatalogService {
	return &CatalogService{Svcs: svcs, Items: items}
}

func (s *CatalogService) Services() ([]domain.Service, error) {
	out, err := s.Svcs.List()
	return out, remote("services.list", err)
}

// SelectService is the home screen tile press. Only available services lead
// to the item list.
func (s *CatalogService) SelectService(name string) (domain.Service, error) {
	svc, err := s.Svcs.Get(name)
	if err != nil {
		return domain.Service{}, lookup("services.get", err)
	}
	if !svc.Available {
		return svc, &UnavailableError{Service: svc.Name}
	}
	return svc, nil
}

// ListItems returns the catalog, filtered by a case-insensitive name match
// when q is set.
func (s *CatalogService) ListItems(q string) ([]domain.Item, error) {
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			return nil, invalid("q", "Please use letters, digits and spaces only.")
		}
	}
	out, err := s.Items.Search(q)
	return out, remote("items.search", err)
}

func (s *CatalogService) GetItem(id string) (domain.Item, error) {
	id, ok := validate.ID(id)
	if !ok {
		return domain.Item{}, ErrNotFound
	}
	it, err := s.Items.Get(id)
	if err != nil {
		return domain.Item{}, lookup("items.get", err)
	}
	return it, nil
}
