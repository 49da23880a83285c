// Package memory implementa los repositorios en memoria. Sirve al driver STORAGE_DRIVER=memory
// y a las pruebas de los casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Remitos-api/internal/application/ports"
	"github.com/jhoicas/Remitos-api/internal/domain/entity"
	"github.com/jhoicas/Remitos-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// Store guarda todo el estado detrás de un único mutex. Una transacción trabaja sobre una
// copia del estado y la publica al confirmar; si falla, la copia se descarta.
type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	suppliers map[string]*entity.Supplier
	clients   map[string]*entity.Client
	products  map[string]*entity.Product
	sequences map[string]int64
	purchases map[string]*entity.PurchaseOrder
	invoices  map[string]*entity.SupplierInvoice
	notes     map[string]*entity.SupplierDeliveryNote
	orders    map[string]*entity.SalesOrder
	remitos   map[string]*entity.OutboundRemito
	traza     []*entity.TrazabilidadEntry
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

func newState() *state {
	return &state{
		suppliers: make(map[string]*entity.Supplier),
		clients:   make(map[string]*entity.Client),
		products:  make(map[string]*entity.Product),
		sequences: make(map[string]int64),
		purchases: make(map[string]*entity.PurchaseOrder),
		invoices:  make(map[string]*entity.SupplierInvoice),
		notes:     make(map[string]*entity.SupplierDeliveryNote),
		orders:    make(map[string]*entity.SalesOrder),
		remitos:   make(map[string]*entity.OutboundRemito),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.suppliers {
		c.suppliers[k] = cloneSupplier(v)
	}
	for k, v := range s.clients {
		c.clients[k] = cloneClient(v)
	}
	for k, v := range s.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.purchases {
		c.purchases[k] = clonePurchase(v)
	}
	for k, v := range s.invoices {
		c.invoices[k] = cloneInvoice(v)
	}
	for k, v := range s.notes {
		c.notes[k] = cloneNote(v)
	}
	for k, v := range s.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range s.remitos {
		c.remitos[k] = cloneRemito(v)
	}
	c.traza = make([]*entity.TrazabilidadEntry, 0, len(s.traza))
	for _, e := range s.traza {
		c.traza = append(c.traza, cloneEntry(e))
	}
	return c
}

// view acceso a un estado. Fuera de transacción (tx == nil) cada operación toma el mutex.
type view struct {
	s  *Store
	tx *state
}

func (v view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return fn(v.s.st)
}

// Repos devuelve los repositorios sin transacción.
func (s *Store) Repos() repository.Repos {
	return reposFor(view{s: s})
}

// Run ejecuta fn sobre una copia del estado; las transacciones quedan serializadas.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(reposFor(view{s: s, tx: work})); err != nil {
		return err
	}
	s.st = work
	return nil
}

func reposFor(v view) repository.Repos {
	return repository.Repos{
		Suppliers:     &supplierRepo{v},
		Clients:       &clientRepo{v},
		Products:      &productRepo{v},
		Sequences:     &sequenceRepo{v},
		Purchases:     &purchaseRepo{v},
		Invoices:      &invoiceRepo{v},
		DeliveryNotes: &deliveryNoteRepo{v},
		Orders:        &orderRepo{v},
		Remitos:       &remitoRepo{v},
		Trazabilidad:  &trazabilidadRepo{v},
	}
}

// AddSupplier carga un proveedor.
func (s *Store) AddSupplier(sp *entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.suppliers[sp.ID] = cloneSupplier(sp)
}

// AddClient carga un cliente.
func (s *Store) AddClient(c *entity.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.clients[c.ID] = cloneClient(c)
}

// AddProduct carga o reemplaza un producto.
func (s *Store) AddProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = cloneProduct(p)
}

// AddInvoice carga una factura de proveedor.
func (s *Store) AddInvoice(inv *entity.SupplierInvoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.invoices[inv.ID] = cloneInvoice(inv)
}
