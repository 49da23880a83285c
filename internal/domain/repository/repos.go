package repository

// Repos agrupa los repositorios atados a una misma conexión o transacción.
type Repos struct {
	Suppliers     SupplierRepository
	Clients       ClientRepository
	Products      ProductRepository
	Sequences     SequenceRepository
	Purchases     PurchaseRepository
	Invoices      SupplierInvoiceRepository
	DeliveryNotes DeliveryNoteRepository
	Orders        SalesOrderRepository
	Remitos       RemitoRepository
	Trazabilidad  TrazabilidadRepository
}
