package handlers

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"utok/internal/config"
	"utok/internal/domain"
	"utok/internal/repos"
	"utok/internal/services"
	"utok/internal/session"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	LocationHandler *LocationHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, store *session.Store, geocoder services.Geocoder) (*Deps, error) {
	unit, err := cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}
	tokens := &services.Tokens{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer, TTL: cfg.Auth.TTL}

	userRepo := repos.NewUserRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	authSvc := services.NewAuthService(userRepo, tokens, store)
	catalogSvc := services.NewCatalogService(repos.NewServiceRepo(db), repos.NewItemRepo(db))
	cartSvc := services.NewCartService(catalogSvc, store)
	orderSvc := services.NewOrderService(orderRepo, store)
	locSvc := services.NewLocationService(geocoder)

	return &Deps{
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Order: orderSvc, Currency: unit},
		OrderHandler:    &OrderHandler{Order: orderSvc, Currency: unit},
		LocationHandler: &LocationHandler{Location: locSvc},
	}, nil
}

// Money formats an amount the way receipts and cart totals show it.
func Money(unit currency.Unit) func(decimal.Decimal) string {
	return func(d decimal.Decimal) string {
		return domain.Money{Amount: d, Currency: unit}.String()
	}
}
