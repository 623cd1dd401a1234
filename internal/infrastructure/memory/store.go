// Package memory implementa los puertos de persistencia en memoria. Cada transacción trabaja
// sobre una copia del estado bajo un bloqueo exclusivo global y solo la publica si fn no falla,
// así el rollback es descartar la copia.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var (
	_ inventory.TxRunner             = (*Store)(nil)
	_ repository.StockRepository     = (*StockRepository)(nil)
	_ repository.LotRepository       = (*LotRepository)(nil)
	_ repository.ExitRepository      = (*ExitRepository)(nil)
	_ repository.ProductRepository   = (*ProductRepository)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepository)(nil)
)

type key struct {
	productID   string
	warehouseID string
}

type state struct {
	products    map[string]entity.Product
	warehouses  map[string]entity.Warehouse
	thresholds  map[key]decimal.Decimal
	stock       map[key]entity.Stock
	lots        map[string]entity.Lot
	exits       map[string]entity.ExitDocument
	allocations map[string][]entity.Allocation // por exit_id, en orden de inserción
}

func newState() *state {
	return &state{
		products:    map[string]entity.Product{},
		warehouses:  map[string]entity.Warehouse{},
		thresholds:  map[key]decimal.Decimal{},
		stock:       map[key]entity.Stock{},
		lots:        map[string]entity.Lot{},
		exits:       map[string]entity.ExitDocument{},
		allocations: map[string][]entity.Allocation{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.thresholds {
		c.thresholds[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	for k, v := range s.exits {
		c.exits[k] = copyExit(v)
	}
	for k, v := range s.allocations {
		c.allocations[k] = append([]entity.Allocation(nil), v...)
	}
	return c
}

// allocatedByLot suma lo asignado por lote sobre todas las salidas vivas.
func (s *state) allocatedByLot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, list := range s.allocations {
		for _, a := range list {
			out[a.LotID] = out[a.LotID].Add(a.Quantity)
		}
	}
	return out
}

func copyExit(e entity.ExitDocument) entity.ExitDocument {
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		e.ExpiresAt = &t
	}
	e.Allocations = nil
	return e
}

// Store estado en memoria más el bloqueo que serializa transacciones.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

// scope decide sobre qué estado opera un repositorio: la copia de la tx o el estado publicado.
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) read(fn func(*state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	return fn(sc.store.state)
}

func (sc scope) write(fn func(*state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state)
}

// Run implementa inventory.TxRunner. Las transacciones se ejecutan de a una (serializable).
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	lotRepo repository.LotRepository,
	exitRepo repository.ExitRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	sc := scope{store: s, tx: tx}
	if err := fn(&StockRepository{sc: sc}, &LotRepository{sc: sc}, &ExitRepository{sc: sc}); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// Repositorios fuera de transacción (lecturas y siembra).

func (s *Store) Stock() *StockRepository          { return &StockRepository{sc: scope{store: s}} }
func (s *Store) Lots() *LotRepository             { return &LotRepository{sc: scope{store: s}} }
func (s *Store) Exits() *ExitRepository           { return &ExitRepository{sc: scope{store: s}} }
func (s *Store) Products() *ProductRepository     { return &ProductRepository{sc: scope{store: s}} }
func (s *Store) Warehouses() *WarehouseRepository { return &WarehouseRepository{sc: scope{store: s}} }

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = p
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.warehouses[w.ID] = w
}

// SetThreshold fija el punto de reorden de (producto, bodega).
func (s *Store) SetThreshold(productID, warehouseID string, threshold decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.thresholds[key{productID, warehouseID}] = threshold
}

// ReceiveLot simula el flujo de recepción: guarda el lote y suma lo recibido al ledger.
func (s *Store) ReceiveLot(l entity.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.lots[l.ID]; ok {
		return fmt.Errorf("lote %s ya existe", l.ID)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.state.lots[l.ID] = l
	k := key{l.ProductID, l.WarehouseID}
	st, ok := s.state.stock[k]
	if !ok {
		st = entity.Stock{ProductID: l.ProductID, WarehouseID: l.WarehouseID, Quantity: decimal.Zero}
	}
	st.Quantity = st.Quantity.Add(l.ReceivedQuantity)
	st.UpdatedAt = l.CreatedAt
	s.state.stock[k] = st
	return nil
}
