package handlers

import (
	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/catalog"
	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type SearchHandler struct {
	Kiosk *services.KioskService
}

// POST /filter/search. An empty query returns to category browsing.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.FormValue("q")
	q, ok := validate.Q(rawQ)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{
			"Message": "Enter a valid keyword",
		})
	}
	sid := ensureSID(c)
	st, err := h.Kiosk.UpdateFilter(c.UserContext(), sid, func(st catalog.FilterState) catalog.FilterState {
		return st.SetSearch(q)
	})
	if err != nil {
		return fail(c, "filter.search.fail", err)
	}
	if st.Searching() {
		applog.Info(c, "filter.search", map[string]any{"q": q})
	}
	return c.Redirect("/")
}
