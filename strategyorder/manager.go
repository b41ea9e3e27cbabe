package strategyorder

import (
	"github.com/gofrs/uuid"
	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/order"
)

// openedLevel is one FIFO queue of strategy order ids parked at a
// single expected-close price, indexed into a btree ordered by price.
type openedLevel struct {
	price decimal.Decimal
	ids   []uuid.UUID
}

func lessOpenedLevel(a, b openedLevel) bool {
	return a.price.LessThan(b.price)
}

// Manager owns the pairing discipline that lets a grid-like strategy
// emit close orders at distinct, non-colliding expected prices.
//
// Grounded on SStrategyOrderManagerV2 (original_source/src/strategy/order/order_manager_v2.rs).
type Manager struct {
	strategyOrders  map[uuid.UUID]StrategyOrder
	orderToStrategy map[uuid.UUID]uuid.UUID

	longOpened  *btree.BTreeG[openedLevel]
	shortOpened *btree.BTreeG[openedLevel]

	MinProfitPct      decimal.Decimal
	MaxProfitPct      decimal.Decimal
	ClosePriceStepPct decimal.Decimal
}

// NewManager returns an empty Manager configured with the
// collision-stepping parameters.
func NewManager(minProfitPct, maxProfitPct, closePriceStepPct decimal.Decimal) *Manager {
	return &Manager{
		strategyOrders:    make(map[uuid.UUID]StrategyOrder),
		orderToStrategy:   make(map[uuid.UUID]uuid.UUID),
		longOpened:        btree.NewG(32, lessOpenedLevel),
		shortOpened:       btree.NewG(32, lessOpenedLevel),
		MinProfitPct:      minProfitPct,
		MaxProfitPct:      maxProfitPct,
		ClosePriceStepPct: closePriceStepPct,
	}
}

// Add inserts a fresh (always Opening) StrategyOrder and indexes its
// open-order id. Fails silently returning false on a duplicate id.
func (m *Manager) Add(so StrategyOrder) bool {
	if _, exists := m.strategyOrders[so.ID]; exists {
		return false
	}
	m.strategyOrders[so.ID] = so
	m.orderToStrategy[so.OpenOrderID] = so.ID
	if so.HasCloseOrder() {
		m.orderToStrategy[so.CloseOrderID] = so.ID
	}
	return true
}

// AddWithOrder builds a StrategyOrder from openOrder and inserts it.
func (m *Manager) AddWithOrder(openOrder order.Order, direction asset.Direction) (StrategyOrder, error) {
	so, err := New(openOrder, direction)
	if err != nil {
		return StrategyOrder{}, err
	}
	m.Add(so)
	return so, nil
}

// PeekByID returns a copy of the strategy order for id.
func (m *Manager) PeekByID(id uuid.UUID) (StrategyOrder, error) {
	so, ok := m.strategyOrders[id]
	if !ok {
		return StrategyOrder{}, &IDNotFoundError{ID: id}
	}
	return so, nil
}

// PeekByOrderID returns a copy of the strategy order bound to a book
// order id (either its open or close leg).
func (m *Manager) PeekByOrderID(orderID uuid.UUID) (StrategyOrder, error) {
	id, ok := m.orderToStrategy[orderID]
	if !ok {
		return StrategyOrder{}, &OrderIDNotFoundError{OrderID: orderID}
	}
	return m.PeekByID(id)
}

// PopByID removes and returns the strategy order for id, clearing its
// index entries. Returns false if id is unknown.
func (m *Manager) PopByID(id uuid.UUID) (StrategyOrder, bool) {
	so, ok := m.strategyOrders[id]
	if !ok {
		return StrategyOrder{}, false
	}
	delete(m.strategyOrders, id)
	delete(m.orderToStrategy, so.OpenOrderID)
	if so.HasCloseOrder() {
		delete(m.orderToStrategy, so.CloseOrderID)
	}
	return so, true
}

// PopByOrderID removes and returns the strategy order bound to orderID.
func (m *Manager) PopByOrderID(orderID uuid.UUID) (StrategyOrder, bool) {
	id, ok := m.orderToStrategy[orderID]
	if !ok {
		return StrategyOrder{}, false
	}
	return m.PopByID(id)
}

func (m *Manager) openedIndex(direction asset.Direction) *btree.BTreeG[openedLevel] {
	if direction == asset.Long {
		return m.longOpened
	}
	return m.shortOpened
}

// hasAnyInOpenRange reports whether idx has a non-empty level with
// price strictly between low and high.
func hasAnyInOpenRange(idx *btree.BTreeG[openedLevel], low, high decimal.Decimal) bool {
	found := false
	idx.AscendRange(openedLevel{price: low}, openedLevel{price: high}, func(item openedLevel) bool {
		if item.price.Equal(low) {
			return true
		}
		if len(item.ids) > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

// pushIntoOpenedOrders implements the collision-stepping algorithm:
// starting at p = open_price*(1+min_profit_pct), step forward by
// open_price*close_price_step_pct until landing on a price whose
// (p-step, p+step) window is empty in the opened index, or pmax is
// reached. Mutates the strategy order's recorded expected close price.
func (m *Manager) pushIntoOpenedOrders(strategyOrderID uuid.UUID) (decimal.Decimal, error) {
	so, err := m.PeekByID(strategyOrderID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	idx := m.openedIndex(so.Direction)

	one := decimal.NewFromInt(1)
	pMin := so.OpenPrice.Mul(one.Add(m.MinProfitPct))
	pMax := so.OpenPrice.Mul(one.Add(m.MaxProfitPct))
	step := so.OpenPrice.Mul(m.ClosePriceStepPct)

	price := pMin
	for price.LessThan(pMax) {
		low := price.Sub(step)
		high := price.Add(step)
		if !hasAnyInOpenRange(idx, low, high) {
			break
		}
		price = price.Add(step)
		if price.GreaterThan(pMax) {
			price = pMax
		}
	}

	level, ok := idx.Get(openedLevel{price: price})
	if !ok {
		level = openedLevel{price: price}
	}
	level.ids = append(level.ids, strategyOrderID)
	idx.ReplaceOrInsert(level)

	so.SetExpectedClosePrice(price)
	m.strategyOrders[strategyOrderID] = so
	return price, nil
}

// removeFromOpenedOrders removes a strategy order from its direction's
// opened index, dropping the price level once it empties.
func (m *Manager) removeFromOpenedOrders(strategyOrderID uuid.UUID) error {
	so, err := m.PeekByID(strategyOrderID)
	if err != nil {
		return err
	}
	if !so.HasExpectedClosePrice() {
		return nil
	}
	idx := m.openedIndex(so.Direction)
	level, ok := idx.Get(openedLevel{price: so.ExpectedClosePrice})
	if !ok {
		return nil
	}
	pos := -1
	for i, id := range level.ids {
		if id == strategyOrderID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return nil
	}
	level.ids = append(level.ids[:pos], level.ids[pos+1:]...)
	if len(level.ids) == 0 {
		idx.Delete(openedLevel{price: so.ExpectedClosePrice})
	} else {
		idx.ReplaceOrInsert(level)
	}
	return nil
}

func (m *Manager) cleanIndex(idx *btree.BTreeG[openedLevel]) {
	var stale []decimal.Decimal
	idx.Ascend(func(level openedLevel) bool {
		kept := level.ids[:0:0]
		for _, id := range level.ids {
			if _, ok := m.strategyOrders[id]; ok {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			stale = append(stale, level.price)
		} else if len(kept) != len(level.ids) {
			idx.ReplaceOrInsert(openedLevel{price: level.price, ids: kept})
		}
		return true
	})
	for _, price := range stale {
		idx.Delete(openedLevel{price: price})
	}
}

// CleanIndex purges dangling ids (pointing at already-removed strategy
// orders) from both opened indices.
func (m *Manager) CleanIndex() {
	m.cleanIndex(m.longOpened)
	m.cleanIndex(m.shortOpened)
}

// CancelOpenByOrderID transitions Opening -> Canceled and destroys the
// strategy order, returning it.
func (m *Manager) CancelOpenByOrderID(orderID uuid.UUID) (StrategyOrder, error) {
	so, err := m.PeekByOrderID(orderID)
	if err != nil {
		return StrategyOrder{}, err
	}
	if err := so.CancelOpen(); err != nil {
		return StrategyOrder{}, err
	}
	removed, _ := m.PopByID(so.ID)
	return removed, nil
}

// OpenedByOrderID transitions Opening -> Opened and registers the
// strategy order in its direction's opened index, returning the
// assigned expected close price.
func (m *Manager) OpenedByOrderID(orderID uuid.UUID) (decimal.Decimal, error) {
	so, err := m.PeekByOrderID(orderID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := so.Opened(); err != nil {
		return decimal.Decimal{}, err
	}
	m.strategyOrders[so.ID] = so
	return m.pushIntoOpenedOrders(so.ID)
}

// BindCloseByOrderID transitions Opened -> Closing, removes the order
// from the opened index, and registers closeOrderID in the lookup index.
func (m *Manager) BindCloseByOrderID(orderID, closeOrderID uuid.UUID) error {
	so, err := m.PeekByOrderID(orderID)
	if err != nil {
		return err
	}
	if err := so.BindClose(closeOrderID); err != nil {
		return err
	}
	if err := m.removeFromOpenedOrders(so.ID); err != nil {
		return err
	}
	m.strategyOrders[so.ID] = so
	m.orderToStrategy[closeOrderID] = so.ID
	return nil
}

// ClosedByOrderID transitions Closing -> Closed and destroys the
// strategy order, returning it.
func (m *Manager) ClosedByOrderID(orderID uuid.UUID) (StrategyOrder, error) {
	so, err := m.PeekByOrderID(orderID)
	if err != nil {
		return StrategyOrder{}, err
	}
	if err := so.Closed(); err != nil {
		return StrategyOrder{}, err
	}
	removed, _ := m.PopByID(so.ID)
	return removed, nil
}

// CancelCloseByOrderID transitions Closing -> Opened and re-registers
// the strategy order in the opened index (re-running collision
// stepping), returning the new expected close price.
func (m *Manager) CancelCloseByOrderID(orderID uuid.UUID) (decimal.Decimal, error) {
	so, err := m.PeekByOrderID(orderID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if err := so.CancelClose(); err != nil {
		return decimal.Decimal{}, err
	}
	m.strategyOrders[so.ID] = so
	return m.pushIntoOpenedOrders(so.ID)
}

func (m *Manager) peekConditionedFirst(direction asset.Direction, highest bool) (StrategyOrder, bool, error) {
	idx := m.openedIndex(direction)
	var level openedLevel
	var ok bool
	if highest {
		level, ok = idx.Max()
	} else {
		level, ok = idx.Min()
	}
	if !ok {
		return StrategyOrder{}, false, nil
	}
	if len(level.ids) == 0 {
		return StrategyOrder{}, false, &OpenedVecEmptyError{Direction: direction, Price: level.price}
	}
	id := level.ids[0]
	so, found := m.strategyOrders[id]
	if !found {
		return StrategyOrder{}, false, &OpenedIDNotInPoolError{Direction: direction, Price: level.price, ID: id}
	}
	return so, true, nil
}

func (m *Manager) popConditionedFirst(direction asset.Direction, highest bool) (StrategyOrder, bool, error) {
	so, ok, err := m.peekConditionedFirst(direction, highest)
	if err != nil || !ok {
		return StrategyOrder{}, false, err
	}
	removed, _ := m.PopByID(so.ID)
	m.cleanIndex(m.openedIndex(direction))
	return removed, true, nil
}

// PeekHighestLongOpenedOrder returns the highest expected-close-price
// long position awaiting a close leg, without removing it.
func (m *Manager) PeekHighestLongOpenedOrder() (StrategyOrder, bool, error) {
	return m.peekConditionedFirst(asset.Long, true)
}

// PopHighestLongOpenedOrder removes and returns it.
func (m *Manager) PopHighestLongOpenedOrder() (StrategyOrder, bool, error) {
	return m.popConditionedFirst(asset.Long, true)
}

// PeekLowestLongOpenedOrder returns the lowest expected-close-price
// long position awaiting a close leg, without removing it.
func (m *Manager) PeekLowestLongOpenedOrder() (StrategyOrder, bool, error) {
	return m.peekConditionedFirst(asset.Long, false)
}

// PopLowestLongOpenedOrder removes and returns it.
func (m *Manager) PopLowestLongOpenedOrder() (StrategyOrder, bool, error) {
	return m.popConditionedFirst(asset.Long, false)
}

// PeekHighestShortOpenedOrder returns the highest expected-close-price
// short position awaiting a close leg, without removing it.
func (m *Manager) PeekHighestShortOpenedOrder() (StrategyOrder, bool, error) {
	return m.peekConditionedFirst(asset.Short, true)
}

// PopHighestShortOpenedOrder removes and returns it.
func (m *Manager) PopHighestShortOpenedOrder() (StrategyOrder, bool, error) {
	return m.popConditionedFirst(asset.Short, true)
}

// PeekLowestShortOpenedOrder returns the lowest expected-close-price
// short position awaiting a close leg, without removing it.
func (m *Manager) PeekLowestShortOpenedOrder() (StrategyOrder, bool, error) {
	return m.peekConditionedFirst(asset.Short, false)
}

// PopLowestShortOpenedOrder removes and returns it.
func (m *Manager) PopLowestShortOpenedOrder() (StrategyOrder, bool, error) {
	return m.popConditionedFirst(asset.Short, false)
}

// Each calls fn for every StrategyOrder currently tracked, in any state.
func (m *Manager) Each(fn func(StrategyOrder)) {
	for _, so := range m.strategyOrders {
		fn(so)
	}
}
