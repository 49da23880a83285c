package entity

import "time"

// Client cliente final de los pedidos de venta (solo lectura para el motor de pedidos).
type Client struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supplier proveedor de las compras y remitos de proveedor.
type Supplier struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
