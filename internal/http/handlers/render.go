package handlers

import (
	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"

	"kioskpos/internal/client"
	"kioskpos/internal/domain"
	"kioskpos/internal/pricing"
)

// NewEngine loads the views under dir with the kiosk's template funcs.
func NewEngine(dir, storeName string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("won", pricing.Won)
	engine.AddFunc("deltaBadge", pricing.DeltaBadge)
	engine.AddFunc("imageURL", client.ImageURL)
	engine.AddFunc("storeName", func() string { return storeName })
	engine.AddFunc("lineTotal", func(it domain.CartItem) int {
		return it.FinalPrice * pricing.ClampQty(it.Quantity)
	})
	engine.AddFunc("dict", func(kv ...any) map[string]any {
		m := make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			if k, ok := kv[i].(string); ok {
				m[k] = kv[i+1]
			}
		}
		return m
	})
	engine.AddFunc("firstImage", func(imgs []string) string {
		if len(imgs) == 0 {
			return ""
		}
		return client.ImageURL(imgs[0])
	})
	return engine
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if sess, ok := c.Locals("admin").(domain.AdminSession); ok && sess.Authenticated {
		data["Admin"] = sess
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}
