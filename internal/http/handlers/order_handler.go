package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type OrderHandler struct {
	Kiosk *services.KioskService
}

// POST /orders places the cart upstream. On any failure the cart stays as
// it was and the checkout screen is shown again with the reason.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)
	customer, ok := validate.Text(c.FormValue("customer"), 100)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "customer"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid customer")
	}

	o, err := h.Kiosk.Checkout(c.UserContext(), sid, customer)
	if err != nil {
		status, msg := classify(c, "order.place.fail", err)
		var ve *domain.ValidationError
		if o.ID != "" && !errors.As(err, &ve) {
			// Placed upstream; only local bookkeeping failed.
			return c.Redirect("/order/" + o.ID)
		}
		sum, cerr := h.Kiosk.Cart(sid)
		if cerr != nil {
			return c.Status(status).Render("notfound", fiber.Map{"Message": msg})
		}
		c.Status(status)
		return render(c, "cart", fiber.Map{"Cart": sum, "Err": msg, "Customer": customer})
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.TotalAmount,
		"items":    len(o.Items),
		"customer": o.ErpCustomerCode,
	})
	if o.ID == "" {
		return render(c, "order", fiber.Map{"Order": o})
	}
	return c.Redirect("/order/" + o.ID)
}

// GET /order/:id shows a receipt to the session that placed it.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Kiosk.Receipt(c.Cookies("sid"), oid)
	if errors.Is(err, services.ErrNotFound) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return notFound(c, "Order not found")
	}
	if err != nil {
		return fail(c, "order.view.fail", err)
	}
	return render(c, "order", fiber.Map{"Order": o})
}
