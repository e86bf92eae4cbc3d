package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"kioskpos/internal/domain"
	applog "kioskpos/internal/log"
	"kioskpos/internal/pricing"
	"kioskpos/internal/services"
	"kioskpos/internal/validate"
)

type AdminHandler struct {
	Admin *services.AdminService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return c.Redirect("/admin/orders")
}

// ---------- Orders ----------

// GET /admin/orders?status=&customer=&from=&to=
// Both dates are whole days in local time; "to" includes its day.
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	f := services.OrderFilter{Status: c.Query("status", "all")}
	if f.Status != "all" {
		if _, ok := validate.Status(f.Status); !ok {
			f.Status = "all"
		}
	}
	f.Customer, _ = validate.Text(c.Query("customer"), 50)
	from, okFrom := validate.Date(c.Query("from"), time.Local)
	to, okTo := validate.Date(c.Query("to"), time.Local)
	if !okFrom || !okTo {
		applog.Security(c, "validation.fail", map[string]any{"field": "date"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Dates must look like 2006-01-02"})
	}
	f.From = from
	if !to.IsZero() {
		f.To = to.AddDate(0, 0, 1)
	}

	rep, err := h.Admin.ListOrders(adminSession(c), f)
	if err != nil {
		return fail(c, "admin.orders.list.fail", err)
	}
	applog.Audit(c, "admin.orders.view", map[string]any{"status": f.Status, "count": len(rep.Orders)})
	return render(c, "admin_orders", fiber.Map{
		"Report":   rep,
		"Filter":   f,
		"From":     c.Query("from"),
		"To":       c.Query("to"),
		"Statuses": []domain.OrderStatus{domain.StatusPending, domain.StatusCompleted, domain.StatusCancelled},
	})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	status, okStatus := validate.Status(c.FormValue("status"))
	if !okID || !okStatus {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or status")
	}
	if _, err := h.Admin.UpdateOrderStatus(adminSession(c), id, status); err != nil {
		return fail(c, "admin.orders.update.fail", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}

// POST /admin/orders/:id/delete
func (h *AdminHandler) DeleteOrder(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	if err := h.Admin.DeleteOrder(adminSession(c), id); err != nil {
		return fail(c, "admin.orders.delete.fail", err)
	}
	applog.Audit(c, "admin.orders.delete", map[string]any{"order_id": id})
	return c.Redirect("/admin/orders")
}

// ---------- Categories ----------

// GET /admin/categories?q=
func (h *AdminHandler) CategoriesPage(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		q = ""
	}
	view, err := h.Admin.Categories(c.UserContext(), q)
	if err != nil {
		return fail(c, "admin.categories.list.fail", err)
	}
	type row struct {
		Main    domain.Category
		Subs    []domain.Category
		Details map[string][]domain.Category
	}
	rows := make([]row, 0, len(view.Matches))
	for _, m := range view.Matches {
		r := row{Main: m, Subs: view.Tree.Children(m.ID), Details: map[string][]domain.Category{}}
		for _, s := range r.Subs {
			r.Details[s.ID] = view.Tree.Children(s.ID)
		}
		rows = append(rows, r)
	}
	return render(c, "admin_categories", fiber.Map{"Rows": rows, "Q": view.Query})
}

// POST /admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	name, okName := validate.Name(c.FormValue("name"))
	level, okLevel := validate.Level(c.FormValue("level"))
	parent, okParent := validate.OptionalID(c.FormValue("parentId"))
	if !okName || !okLevel || !okParent {
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Enter a category name and level"})
	}
	cat, err := h.Admin.CreateCategory(c.UserContext(), adminSession(c), name, level, parent)
	if err != nil {
		return fail(c, "admin.categories.create.fail", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"id": cat.ID, "level": cat.Level})
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id/rename
func (h *AdminHandler) RenameCategory(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	name, okName := validate.Name(c.FormValue("name"))
	if !okID || !okName {
		return c.Status(fiber.StatusBadRequest).SendString("missing id or name")
	}
	if _, err := h.Admin.RenameCategory(c.UserContext(), adminSession(c), id, name); err != nil {
		return fail(c, "admin.categories.rename.fail", err)
	}
	applog.Audit(c, "admin.categories.rename", map[string]any{"id": id})
	return c.Redirect("/admin/categories")
}

// POST /admin/categories/:id/delete
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	if err := h.Admin.DeleteCategory(c.UserContext(), adminSession(c), id); err != nil {
		return fail(c, "admin.categories.delete.fail", err)
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"id": id})
	return c.Redirect("/admin/categories")
}

// ---------- Products ----------

// GET /admin/products?edit=<id>
func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	v, err := h.Admin.Catalog.Current(c.UserContext())
	if err != nil {
		return fail(c, "admin.products.list.fail", err)
	}
	data := fiber.Map{"Products": v.Products, "Mains": v.Tree.Mains(), "Hashtags": "", "Images": ""}
	if id, ok := validate.ID(c.Query("edit")); ok {
		p, found := v.Product(id)
		if !found {
			return notFound(c, "This item is no longer available")
		}
		data["Edit"] = p
		data["Hashtags"] = strings.Join(p.Hashtags, ", ")
		data["Images"] = strings.Join(p.Images, "\n")
		groups := make([]pricing.RawGroup, pricing.MaxGroups)
		for i, g := range p.OptionGroups {
			if i < len(groups) {
				groups[i] = pricing.RawGroup{Name: g.Name, Values: strings.Join(g.Values, ", ")}
			}
		}
		data["Groups"] = groups
	} else {
		data["Groups"] = make([]pricing.RawGroup, pricing.MaxGroups)
	}
	return render(c, "admin_products", data)
}

// productForm reads the admin product form. Groups come as groupName<i> /
// groupValues<i>; combination overrides as price.<name> and erp.<name>.
func productForm(c *fiber.Ctx) (services.ProductInput, error) {
	in := services.ProductInput{
		ID:             strings.TrimSpace(c.FormValue("id")),
		Name:           c.FormValue("name"),
		Description:    c.FormValue("description"),
		MainCategory:   strings.TrimSpace(c.FormValue("mainCategory")),
		SubCategory:    strings.TrimSpace(c.FormValue("subCategory")),
		DetailCategory: strings.TrimSpace(c.FormValue("detailCategory")),
		Hashtags:       c.FormValue("hashtags"),
		ErpCode:        c.FormValue("erpCode"),
		Prices:         map[string]int{},
		ErpCodes:       map[string]string{},
	}
	if in.ID != "" {
		if _, ok := validate.ID(in.ID); !ok {
			return in, domain.Invalid("id", "invalid product id")
		}
	}
	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		return in, domain.Invalid("price", "price must be a whole number of won")
	}
	in.Price = price
	for _, line := range strings.Split(c.FormValue("images"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			in.Images = append(in.Images, line)
		}
	}
	for i := 0; i < 10; i++ {
		name, values := c.FormValue(fmt.Sprintf("groupName%d", i)), c.FormValue(fmt.Sprintf("groupValues%d", i))
		if name == "" && values == "" {
			continue
		}
		in.Groups = append(in.Groups, pricing.RawGroup{Name: name, Values: values})
	}

	var bad string
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if combo, ok := strings.CutPrefix(key, "price."); ok {
			n, ok := validate.Delta(string(v))
			if !ok {
				bad = combo
				return
			}
			in.Prices[combo] = n
		} else if combo, ok := strings.CutPrefix(key, "erp."); ok {
			in.ErpCodes[combo] = string(v)
		}
	})
	if bad != "" {
		return in, domain.Invalid("price", fmt.Sprintf("extra price for %q must be a whole number", bad))
	}
	return in, nil
}

// POST /admin/products
func (h *AdminHandler) SaveProduct(c *fiber.Ctx) error {
	in, err := productForm(c)
	if err != nil {
		return fail(c, "admin.products.save.fail", err)
	}
	p, err := h.Admin.SaveProduct(c.UserContext(), adminSession(c), in)
	if err != nil {
		return fail(c, "admin.products.save.fail", err)
	}
	applog.Audit(c, "admin.products.save", map[string]any{"id": p.ID, "combinations": len(p.Combinations)})
	return c.Redirect("/admin/products")
}

type previewRequest struct {
	ProductID string             `json:"productId"`
	Groups    []pricing.RawGroup `json:"groups"`
}

// POST /admin/products/combinations regenerates the price grid for the
// form, keeping saved prices of combinations that still exist.
func (h *AdminHandler) PreviewCombinations(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	groups, combos, err := h.Admin.PreviewCombinations(c.UserContext(), strings.TrimSpace(req.ProductID), req.Groups)
	if err != nil {
		return failJSON(c, "admin.products.preview.fail", err)
	}
	return c.JSON(fiber.Map{"optionGroups": groups, "combinations": combos})
}

// POST /admin/products/:id/delete
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing id")
	}
	if err := h.Admin.DeleteProduct(c.UserContext(), adminSession(c), id); err != nil {
		return fail(c, "admin.products.delete.fail", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"id": id})
	return c.Redirect("/admin/products")
}

// POST /admin/products/bulk-delete with repeated ids fields.
func (h *AdminHandler) BulkDeleteProducts(c *fiber.Ctx) error {
	var ids []string
	for _, raw := range c.Request().PostArgs().PeekMulti("ids") {
		if id, ok := validate.ID(string(raw)); ok {
			ids = append(ids, id)
		}
	}
	n, err := h.Admin.BulkDeleteProducts(c.UserContext(), adminSession(c), ids)
	if err != nil {
		return fail(c, "admin.products.bulk_delete.fail", err)
	}
	applog.Audit(c, "admin.products.bulk_delete", map[string]any{"count": n})
	return c.Redirect("/admin/products")
}

// POST /admin/sync
func (h *AdminHandler) SyncERP(c *fiber.Ctx) error {
	if err := h.Admin.SyncERP(c.UserContext(), adminSession(c)); err != nil {
		return fail(c, "admin.sync.fail", err)
	}
	applog.Audit(c, "admin.sync", nil)
	return c.Redirect("/admin/products")
}
