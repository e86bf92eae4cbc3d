package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/catalog"
	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type CategoryHandler struct {
	Kiosk *services.KioskService
}

// GET /
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	sid := ensureSID(c)
	p, err := h.Kiosk.Page(c.UserContext(), sid)
	if err != nil {
		return fail(c, "kiosk.page.fail", err)
	}
	return render(c, "kiosk", fiber.Map{"Page": p, "Searching": p.State.Searching()})
}

func (h *CategoryHandler) pick(action string, step func(catalog.FilterState, string) catalog.FilterState) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validate.OptionalID(c.FormValue("id"))
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "id", "action": action})
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Unknown category"})
		}
		sid := ensureSID(c)
		_, err := h.Kiosk.UpdateFilter(c.UserContext(), sid, func(st catalog.FilterState) catalog.FilterState {
			return step(st, id)
		})
		if err != nil {
			return fail(c, action+".fail", err)
		}
		return c.Redirect("/")
	}
}

// POST /filter/main
func (h *CategoryHandler) Main(c *fiber.Ctx) error {
	return h.pick("filter.main", catalog.FilterState.SetMain)(c)
}

// POST /filter/sub
func (h *CategoryHandler) Sub(c *fiber.Ctx) error {
	return h.pick("filter.sub", catalog.FilterState.SetSub)(c)
}

// POST /filter/detail
func (h *CategoryHandler) Detail(c *fiber.Ctx) error {
	return h.pick("filter.detail", catalog.FilterState.SetDetail)(c)
}
