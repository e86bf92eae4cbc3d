package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"kioskpos/internal/cache"
	"kioskpos/internal/client"
	"kioskpos/internal/config"
	"kioskpos/internal/http/handlers"
	applog "kioskpos/internal/log"
	"kioskpos/internal/repos"
	"kioskpos/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource of the process so its deferred cleanup runs
// before main exits.
func run() error {
	cfg := config.Load()

	// Optional file logging
	if closer, err := applog.Setup(cfg.LogFile); err != nil {
		log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
	} else if closer != nil {
		defer closer.Close()
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	api := client.New(cfg.APIBaseURL, cfg.APITimeout)

	// Catalog cache: shared through redis when configured, else in process.
	var store cache.Store = cache.NewMemory(cfg.CatalogTTL)
	if rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPass); rdb != nil {
		r := cache.NewRedis(rdb, cfg.CatalogTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := r.Ping(ctx); err != nil {
			log.Printf("[warn] redis %s unreachable, using memory cache: %v", cfg.RedisAddr, err)
		} else {
			store = r
			defer rdb.Close()
		}
		cancel()
	}

	deps := handlers.NewDeps(db, api, store)

	// Warm the catalog; the kiosk still starts when the backend is down.
	if _, err := deps.Catalog.Refresh(context.Background()); err != nil {
		applog.Error(nil, "catalog.warmup.fail", err, nil)
	}

	cr, err := scheduler.Start(
		scheduler.CatalogRefresh(cfg.CatalogRefresh, func(ctx context.Context) error {
			_, err := deps.Catalog.Refresh(ctx)
			return err
		}),
		scheduler.SessionPurge(cfg.SessionPurge, deps.Sessions, cfg.SessionIdle),
	)
	if err != nil {
		return err
	}
	defer cr.Stop()

	// Templates & app
	engine := handlers.NewEngine("./web/templates", cfg.StoreName)
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Log and show a friendly message
			applog.Error(c, "server.error", err, nil)
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok && fe.Code < 500 {
				code = fe.Code
			}
			if rerr := c.Status(code).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(code).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/uploads/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next:           handlers.CSRFExempt,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	log.Printf("[static] /static -> ./web/static")
	app.Static("/static", "./web/static")
	// Product images live on the backend; ImageURL rewrites them to this path.
	upstream := strings.TrimRight(cfg.APIBaseURL, "/")
	app.Get("/uploads/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return proxy.Do(c, upstream+"/uploads/"+path)
	})

	// ---------- App handlers ----------
	deps.Mount(app)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		v, err := deps.Catalog.Current(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false, "catalog": "unavailable"})
		}
		return c.JSON(fiber.Map{"ok": true, "generation": v.Generation, "products": len(v.Products)})
	})
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Error(nil, "server.listen.fail", err, map[string]any{"port": cfg.Port})
		return err
	}
	return nil
}
