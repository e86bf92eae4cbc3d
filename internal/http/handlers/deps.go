package handlers

import (
	"github.com/jmoiron/sqlx"

	"kioskpos/internal/cache"
	"kioskpos/internal/repos"
	"kioskpos/internal/services"
)

// Backend is everything the kiosk needs from the REST collaborator.
// *client.Client satisfies it.
type Backend interface {
	services.CatalogSource
	services.OrderPlacer
	services.CustomerSource
	services.AdminBackend
	services.AuthBackend
}

type Deps struct {
	Catalog  *services.CatalogService
	Kiosk    *services.KioskService
	Admin    *services.AdminService
	Auth     *services.AuthService
	Sessions *repos.SessionRepo

	CategoryHandler *CategoryHandler
	SearchHandler   *SearchHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	CustomerHandler *CustomerHandler
	AuthHandler     *AuthHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, api Backend, store cache.Store) *Deps {
	sessionRepo := repos.NewSessionRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(api, store)
	kioskSvc := &services.KioskService{
		Catalog:   catalogSvc,
		Sessions:  sessionRepo,
		Carts:     cartRepo,
		Receipts:  orderRepo,
		Orders:    api,
		Customers: api,
	}
	adminSvc := &services.AdminService{Backend: api, Catalog: catalogSvc}
	authSvc := &services.AuthService{Backend: api, Sessions: sessionRepo}

	return &Deps{
		Catalog:  catalogSvc,
		Kiosk:    kioskSvc,
		Admin:    adminSvc,
		Auth:     authSvc,
		Sessions: sessionRepo,

		CategoryHandler: &CategoryHandler{Kiosk: kioskSvc},
		SearchHandler:   &SearchHandler{Kiosk: kioskSvc},
		ProductHandler:  &ProductHandler{Kiosk: kioskSvc},
		CartHandler:     &CartHandler{Kiosk: kioskSvc},
		OrderHandler:    &OrderHandler{Kiosk: kioskSvc},
		CustomerHandler: &CustomerHandler{Kiosk: kioskSvc},
		AuthHandler:     &AuthHandler{Auth: authSvc},
		AdminHandler:    &AdminHandler{Admin: adminSvc},
	}
}
