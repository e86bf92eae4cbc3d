package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "kioskpos/internal/log"
)

// Mount registers the kiosk, API and admin routes. Global middleware
// (request id, csrf, helmet) is the caller's.
func (d *Deps) Mount(app *fiber.App) {
	app.Use(LoadAdmin(d.Auth))

	// Kiosk
	app.Get("/", d.CategoryHandler.Home)
	app.Post("/filter/main", d.CategoryHandler.Main)
	app.Post("/filter/sub", d.CategoryHandler.Sub)
	app.Post("/filter/detail", d.CategoryHandler.Detail)
	app.Post("/filter/search", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), d.SearchHandler.Search)
	app.Get("/product/:id", d.ProductHandler.Detail)
	app.Post("/product/:id/quote", d.ProductHandler.Quote)

	// Cart & Orders
	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/orders", d.OrderHandler.Place)
	app.Get("/order/:id", d.OrderHandler.View)

	// API
	api := app.Group("/api/v1")
	api.Get("/cart", d.CartHandler.API)
	api.Get("/customers", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|customers"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.customers.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.CustomerHandler.List)

	// Auth routes (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	// Admin
	adminH := d.AdminHandler
	admin := app.Group("/admin", RequireAdmin(d.Auth))
	admin.Get("/", adminH.Dashboard)
	admin.Get("/orders", adminH.OrdersPage)
	admin.Post("/orders/:id/status", adminH.UpdateOrderStatus)
	admin.Post("/orders/:id/delete", adminH.DeleteOrder)
	admin.Get("/categories", adminH.CategoriesPage)
	admin.Post("/categories", adminH.CreateCategory)
	admin.Post("/categories/:id/rename", adminH.RenameCategory)
	admin.Post("/categories/:id/delete", adminH.DeleteCategory)
	admin.Get("/products", adminH.ProductsPage)
	admin.Post("/products", adminH.SaveProduct)
	admin.Post("/products/combinations", adminH.PreviewCombinations)
	admin.Post("/products/bulk-delete", adminH.BulkDeleteProducts)
	admin.Post("/products/:id/delete", adminH.DeleteProduct)
	admin.Post("/sync", adminH.SyncERP)
}

// CSRFExempt skips the csrf check for the two side-effect-free JSON
// endpoints the modal and the product form call from script.
func CSRFExempt(c *fiber.Ctx) bool {
	if c.Method() != fiber.MethodPost {
		return false
	}
	p := c.Path()
	return p == "/admin/products/combinations" || (strings.HasPrefix(p, "/product/") && strings.HasSuffix(p, "/quote"))
}
