package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Remitos-api/internal/application/dto"
	"github.com/jhoicas/Remitos-api/internal/application/events"
	"github.com/jhoicas/Remitos-api/internal/application/logistics"
	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/application/purchasing"
	"github.com/jhoicas/Remitos-api/internal/application/sales"
	"github.com/jhoicas/Remitos-api/internal/domain"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Remitos-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Remitos-api/internal/interfaces/http"
)

const testWebhookSecret = "webhook-secret-de-prueba"

// buildAPI arma el router completo sobre el store en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddSupplier(&entity.Supplier{ID: "sup-1", Name: "Distribuidora Norte"})
	store.AddClient(&entity.Client{ID: "cli-1", Name: "Almacén Don José", Address: "Belgrano 123"})
	store.AddProduct(&entity.Product{ID: "prod-1", SKU: "ACE-900", Name: "Aceite 900ml", Stock: decimal.NewFromInt(20)})
	store.AddProduct(&entity.Product{ID: "prod-2", SKU: "YER-1K", Name: "Yerba 1kg", Stock: decimal.NewFromInt(20)})

	d := events.NewDispatcher(ports.NopNotifier{}, zerolog.Nop())
	t.Cleanup(d.Wait)
	repos := store.Repos()

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		PurchaseUC:     purchasing.NewPurchaseUseCase(repos, store, zerolog.Nop()),
		DeliveryNoteUC: purchasing.NewDeliveryNoteUseCase(repos, store, d, zerolog.Nop()),
		OrderUC:        sales.NewOrderUseCase(repos, store, d, sales.OrderConfig{}, zerolog.Nop()),
		RemitoUC:       logistics.NewRemitoUseCase(repos, store, d, infrapdf.NewMarotoRemitoPDFGenerator("Distribuidora de Prueba"), zerolog.Nop()),
		JWTSecret:      testJWTSecret,
		WebhookSecret:  testWebhookSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

var orderBody = map[string]any{
	"client_id":        "cli-1",
	"delivery_address": "Av. Siempreviva 742",
	"transport_cost":   "20.00",
	"items": []map[string]any{
		{"product_id": "prod-1", "quantity": "2", "unit_price": "100.00"},
		{"product_id": "prod-2", "quantity": "1", "unit_price": "50.00"},
	},
}

func TestWebhookOrders_ImportacionIdempotente(t *testing.T) {
	app := buildAPI(t)
	body := map[string]any{"external_order_id": "WEB-42"}
	for k, v := range orderBody {
		body[k] = v
	}

	send := func(secret string) *http.Response {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		if secret != "" {
			req.Header.Set(apphttp.HeaderWebhookSecret, secret)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, send("otro").StatusCode)

	first := send(testWebhookSecret)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	created := decode[dto.CreateOrderResult](t, first)
	assert.True(t, created.Created)
	assert.Equal(t, "270.00", created.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, entity.OrderSourceExterno, created.Order.Source)

	again := send(testWebhookSecret)
	require.Equal(t, http.StatusOK, again.StatusCode)
	existing := decode[dto.CreateOrderResult](t, again)
	assert.False(t, existing.Created)
	assert.Equal(t, created.Order.ID, existing.Order.ID)
}

func TestOrders_ValidacionDevuelveDetalles(t *testing.T) {
	app := buildAPI(t)

	resp := call(t, app, http.MethodPost, "/api/orders", tokenForRole(t, apphttp.RoleVentas), map[string]any{"delivery_address": "sin cliente"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	er := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, domain.KindValidation, er.Code)
	assert.Contains(t, er.Details, "client_id:required")
	assert.Contains(t, er.Details, "items:required")
}

func TestOrders_RolSinPermiso(t *testing.T) {
	app := buildAPI(t)

	resp := call(t, app, http.MethodPost, "/api/orders", tokenForRole(t, apphttp.RoleCompras), orderBody)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/orders", "", orderBody)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOrders_FlujoHastaRemitoPDF(t *testing.T) {
	app := buildAPI(t)
	ventas := tokenForRole(t, apphttp.RoleVentas)
	deposito := tokenForRole(t, apphttp.RoleDeposito)

	resp := call(t, app, http.MethodPost, "/api/orders", ventas, orderBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decode[dto.CreateOrderResult](t, resp).Order

	// pendiente_preparacion -> completado no está permitido
	resp = call(t, app, http.MethodPatch, "/api/orders/"+order.ID, ventas, map[string]any{"status": entity.OrderStatusCompletado})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, domain.KindInvalidTransition, decode[dto.ErrorResponse](t, resp).Code)

	resp = call(t, app, http.MethodPatch, "/api/orders/"+order.ID, ventas, map[string]any{"status": entity.OrderStatusAprobado})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/reserve-stock", deposito, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.OrderResponse](t, resp).StockReserved)

	resp = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/remito", deposito, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rem := decode[dto.RemitoResponse](t, resp)
	assert.Equal(t, "250.00", rem.TotalValue.StringFixed(2))

	resp = call(t, app, http.MethodPost, "/api/orders/"+order.ID+"/remito", deposito, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, app, http.MethodPatch, "/api/remitos/"+rem.ID, deposito, map[string]any{"status": entity.RemitoPreparando, "location": "Depósito central"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.RemitoPreparando, decode[dto.RemitoResponse](t, resp).Status)

	resp = call(t, app, http.MethodGet, "/api/remitos/"+rem.ID+"/tracking", ventas, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decode[dto.TrackingResponse](t, resp)
	assert.Len(t, tr.History, 4)

	resp = call(t, app, http.MethodGet, "/api/remitos/"+rem.ID+"/pdf", deposito, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), rem.Number+".pdf")
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	// ventas no borra remitos
	resp = call(t, app, http.MethodDelete, "/api/remitos/"+rem.ID, ventas, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = call(t, app, http.MethodDelete, "/api/remitos/"+rem.ID, deposito, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDeliveryNotes_RecepcionParcial(t *testing.T) {
	app := buildAPI(t)
	compras := tokenForRole(t, apphttp.RoleCompras)
	deposito := tokenForRole(t, apphttp.RoleDeposito)

	resp := call(t, app, http.MethodPost, "/api/purchases", compras, map[string]any{
		"supplier_id":             "sup-1",
		"debt_type":               entity.DebtTypeCompromiso,
		"allows_partial_delivery": true,
		"items":                   []map[string]any{{"product_id": "prod-1", "quantity": "100", "unit_price": "2", "unit_cost": "2"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[dto.PurchaseResponse](t, resp)

	resp = call(t, app, http.MethodPost, "/api/delivery-notes", deposito, map[string]any{
		"supplier_id": "sup-1",
		"purchase_id": p.ID,
		"items":       []map[string]any{{"purchase_item_id": p.Items[0].ID, "quantity": "40"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	note := decode[dto.DeliveryNoteResponse](t, resp)
	assert.Equal(t, entity.DeliveryNoteStatusPartial, note.Status)

	resp = call(t, app, http.MethodPost, "/api/delivery-notes", deposito, map[string]any{
		"supplier_id": "sup-1",
		"purchase_id": p.ID,
		"items":       []map[string]any{{"purchase_item_id": p.Items[0].ID, "quantity": "61"}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[dto.ErrorResponse](t, resp).Details, p.Items[0].ID)

	resp = call(t, app, http.MethodGet, "/api/purchases/"+p.ID, compras, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.PurchaseResponse](t, resp)
	assert.True(t, decimal.NewFromInt(40).Equal(got.Items[0].ReceivedQuantity))

	resp = call(t, app, http.MethodGet, "/api/purchases/no-existe", compras, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// la compra con remitos no se puede borrar
	resp = call(t, app, http.MethodDelete, "/api/purchases/"+p.ID, compras, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdmin_AccedeATodo(t *testing.T) {
	app := buildAPI(t)
	admin := tokenForRole(t, apphttp.RoleAdmin)

	for _, path := range []string{"/api/purchases", "/api/orders", "/api/remitos"} {
		resp := call(t, app, http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
