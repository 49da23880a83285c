package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/application/purchasing"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PurchaseUC     *purchasing.PurchaseUseCase
	DeliveryNoteUC *purchasing.DeliveryNoteUseCase
	OrderUC        *sales.OrderUseCase
	RemitoUC       *logistics.RemitoUseCase
	JWTSecret      string
	WebhookSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Canal de venta externo (secreto compartido)
	webhooks := app.Group("/webhooks", RequireWebhookSecret(deps.WebhookSecret))
	webhookHandler := NewWebhookHandler(deps.OrderUC)
	webhooks.Post("/orders", webhookHandler.ImportOrder)

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Compras
	purchases := protected.Group("/purchases", RequireRole(RoleCompras))
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	purchases.Post("/", purchaseHandler.Create)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.GetByID)
	purchases.Patch("/:id", purchaseHandler.Update)
	purchases.Delete("/:id", purchaseHandler.Delete)

	// Remitos de proveedor (recepción en depósito)
	notes := protected.Group("/delivery-notes", RequireRole(RoleCompras, RoleDeposito))
	noteHandler := NewDeliveryNoteHandler(deps.DeliveryNoteUC)
	notes.Post("/", noteHandler.Create)
	notes.Get("/:id", noteHandler.GetByID)
	notes.Delete("/:id", noteHandler.Delete)
	notes.Post("/:id/items", noteHandler.AddItem)
	notes.Patch("/:id/items/:itemId", noteHandler.UpdateItem)
	notes.Delete("/:id/items/:itemId", noteHandler.DeleteItem)
	notes.Post("/:id/cancel", noteHandler.Cancel)
	notes.Post("/:id/invoice", noteHandler.LinkInvoice)
	notes.Post("/:id/recompute", noteHandler.RecomputeStatus)

	// Pedidos de venta
	orders := protected.Group("/orders", RequireRole(RoleVentas, RoleDeposito))
	orderHandler := NewOrderHandler(deps.OrderUC, deps.RemitoUC)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Patch("/:id", orderHandler.Update)
	orders.Delete("/:id", RequireRole(RoleVentas), orderHandler.Delete)
	orders.Post("/:id/reserve-stock", orderHandler.ReserveStock)
	orders.Post("/:id/remito", orderHandler.GenerateRemito)

	// Remitos de salida
	remitos := protected.Group("/remitos", RequireRole(RoleDeposito, RoleVentas))
	remitoHandler := NewRemitoHandler(deps.RemitoUC)
	remitos.Post("/", remitoHandler.Create)
	remitos.Get("/", remitoHandler.List)
	remitos.Get("/:id", remitoHandler.GetByID)
	remitos.Patch("/:id", remitoHandler.Update)
	remitos.Delete("/:id", RequireRole(RoleDeposito), remitoHandler.Delete)
	remitos.Get("/:id/tracking", remitoHandler.Tracking)
	remitos.Get("/:id/pdf", remitoHandler.PDF)
}
