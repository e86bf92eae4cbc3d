package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type CartHandler struct {
	Kiosk *services.KioskService
}

// POST /cart commits the option view: one selection, one quantity.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "productId"})
		return c.Status(fiber.StatusBadRequest).SendString("missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"))
	sum, err := h.Kiosk.AddToCart(c.UserContext(), sid, productID, selections(c), qty)
	if err != nil {
		return fail(c, "cart.add.fail", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product": productID, "qty": qty, "count": sum.Count})
	return c.Redirect("/")
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cartID, ok := validate.ID(c.FormValue("cartId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing cartId")
	}
	if _, err := h.Kiosk.RemoveFromCart(sid, cartID); err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return c.Redirect("/cart")
}

// GET /cart is the checkout screen: lines, total and the customer picker.
func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	sum, err := h.Kiosk.Cart(sid)
	if err != nil {
		return fail(c, "cart.view.fail", err)
	}
	customers, err := h.Kiosk.CustomerChoices()
	if err != nil {
		// The picker is a convenience; free text still checks out.
		applog.Error(c, "customers.list.fail", err, nil)
		customers = nil
	}
	recent, err := h.Kiosk.RecentOrders(sid)
	if err != nil {
		applog.Error(c, "orders.recent.fail", err, nil)
	}
	return render(c, "cart", fiber.Map{"Cart": sum, "Customers": customers, "Recent": recent})
}

// GET /api/v1/cart
func (h *CartHandler) API(c *fiber.Ctx) error {
	sum, err := h.Kiosk.Cart(ensureSID(c))
	if err != nil {
		return failJSON(c, "cart.api.fail", err)
	}
	return c.JSON(sum)
}
