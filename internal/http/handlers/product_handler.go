package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "kioskpos/internal/log"
	"kioskpos/internal/pricing"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type ProductHandler struct {
	Kiosk *services.KioskService
}

const optPrefix = "opt."

// selections reads "opt.<group>=<value>" pairs from the query string and
// the form body. Values are resolved against the product's groups later.
func selections(c *fiber.Ctx) pricing.Selections {
	sel := pricing.Selections{}
	collect := func(k, v []byte) {
		if group, ok := strings.CutPrefix(string(k), optPrefix); ok && group != "" {
			if val, ok := validate.Text(string(v), 100); ok {
				sel[group] = val
			}
		}
	}
	c.Context().QueryArgs().VisitAll(collect)
	c.Request().PostArgs().VisitAll(collect)
	return sel
}

// quantity applies an optional +1/-1 step to qty, never dropping below 1.
func quantity(c *fiber.Ctx) int {
	qty := validate.Qty(c.FormValue("qty", c.Query("qty")))
	if step, err := strconv.Atoi(c.FormValue("step", c.Query("step"))); err == nil && step != 0 {
		qty = pricing.StepQty(qty, step)
	}
	return qty
}

// GET /product/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	ov, err := h.Kiosk.Options(c.UserContext(), id, selections(c), quantity(c))
	if err != nil {
		return fail(c, "product.view.fail", err)
	}
	return render(c, "product", fiber.Map{"V": ov})
}

type quoteResponse struct {
	Unit       int                          `json:"unit"`
	Extra      int                          `json:"extra"`
	Qty        int                          `json:"qty"`
	Total      int                          `json:"total"`
	Label      string                       `json:"label"`
	Selections pricing.Selections           `json:"selections"`
	Deltas     map[string]map[string]string `json:"deltas"` // group -> value -> badge
}

// POST /product/:id/quote returns the live price for the modal.
func (h *ProductHandler) Quote(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown product"})
	}
	ov, err := h.Kiosk.Options(c.UserContext(), id, selections(c), quantity(c))
	if err != nil {
		return failJSON(c, "product.quote.fail", err)
	}
	resp := quoteResponse{
		Unit:       ov.Quote.Unit,
		Extra:      ov.Quote.Extra,
		Qty:        ov.Qty,
		Total:      ov.Total,
		Label:      pricing.Won(ov.Total),
		Selections: ov.Selections,
		Deltas:     map[string]map[string]string{},
	}
	for _, g := range ov.Groups {
		badges := map[string]string{}
		for _, v := range g.Values {
			if v.Badge != "" {
				badges[v.Value] = v.Badge
			}
		}
		resp.Deltas[g.Name] = badges
	}
	return c.JSON(resp)
}
