package order

import (
	"github.com/gofrs/uuid"
	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/ridgeline-quant/gridback/asset"
	"github.com/ridgeline-quant/gridback/currency"
)

// priceLevel is one FIFO queue of resting order ids at a single price,
// indexed into a btree ordered by price.
type priceLevel struct {
	price decimal.Decimal
	ids   []uuid.UUID
}

func lessPriceLevel(a, b priceLevel) bool {
	return a.price.LessThan(b.price)
}

// Manager is the order book for a single trading pair: a pool of
// orders keyed by id, plus price-ordered indices of resting ids on
// each side for O(log N) best-price access.
//
// Grounded on SOrderManagerV3 (original_source/src/data_runtime/order/order_manager_v3.rs).
type Manager struct {
	PairType currency.PairType

	orders map[uuid.UUID]Order

	buyIndex  *btree.BTreeG[priceLevel]
	sellIndex *btree.BTreeG[priceLevel]

	totalFee *asset.Map
}

// NewManager returns an empty order book for pairType.
func NewManager(pairType currency.PairType) *Manager {
	return &Manager{
		PairType:  pairType,
		orders:    make(map[uuid.UUID]Order),
		buyIndex:  btree.NewG(32, lessPriceLevel),
		sellIndex: btree.NewG(32, lessPriceLevel),
		totalFee:  asset.NewMap(),
	}
}

func (m *Manager) indexFor(action Action) *btree.BTreeG[priceLevel] {
	if action == Buy {
		return m.buyIndex
	}
	return m.sellIndex
}

func (m *Manager) indexInsert(action Action, price decimal.Decimal, id uuid.UUID) {
	idx := m.indexFor(action)
	level, ok := idx.Get(priceLevel{price: price})
	if !ok {
		level = priceLevel{price: price}
	}
	level.ids = append(level.ids, id)
	idx.ReplaceOrInsert(level)
}

// indexRemove removes id from its price level, dropping the level
// entirely once its deque empties. Returns UUIDNotInOrdersError if the
// level exists but does not contain id, or ok=false if the level
// itself is absent.
func (m *Manager) indexRemove(action Action, price decimal.Decimal, id uuid.UUID) (bool, error) {
	idx := m.indexFor(action)
	level, ok := idx.Get(priceLevel{price: price})
	if !ok {
		return false, nil
	}
	pos := -1
	for i, candidate := range level.ids {
		if candidate == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false, &UUIDNotInOrdersError{Action: action, Price: price, ID: id}
	}
	level.ids = append(level.ids[:pos], level.ids[pos+1:]...)
	if len(level.ids) == 0 {
		idx.Delete(priceLevel{price: price})
	} else {
		idx.ReplaceOrInsert(level)
	}
	return true, nil
}

// InsertOrder adds o to the pool and indexes it by price/side. Fails
// with InsertOrderFailError if the id is already present.
func (m *Manager) InsertOrder(o Order) error {
	if existing, ok := m.orders[o.ID]; ok {
		return &InsertOrderFailError{Existing: existing}
	}
	m.orders[o.ID] = o
	m.indexInsert(o.Action, o.Price, o.ID)
	return nil
}

// AddNewOrder builds a fresh Pending order and inserts it into the book.
func (m *Manager) AddNewOrder(price, quantity decimal.Decimal, action Action) (Order, error) {
	o, err := New(m.PairType, price, quantity, action)
	if err != nil {
		return Order{}, err
	}
	if err := m.InsertOrder(o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// RemoveOrder deletes id from the pool and its price index, returning
// the removed order.
func (m *Manager) RemoveOrder(id uuid.UUID) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, &UUIDNotFoundError{ID: id}
	}
	if _, err := m.indexRemove(o.Action, o.Price, id); err != nil {
		return Order{}, err
	}
	delete(m.orders, id)
	return o, nil
}

// RemoveOrders removes every id in ids, collecting the first error
// encountered but continuing to attempt the rest.
func (m *Manager) RemoveOrders(ids []uuid.UUID) ([]Order, error) {
	removed := make([]Order, 0, len(ids))
	var firstErr error
	for _, id := range ids {
		o, err := m.RemoveOrder(id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, o)
	}
	return removed, firstErr
}

// PeekOrder returns a copy of the order for id without removing it.
func (m *Manager) PeekOrder(id uuid.UUID) (Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return Order{}, &UUIDNotFoundError{ID: id}
	}
	return o, nil
}

func (m *Manager) peekFront(idx *btree.BTreeG[priceLevel], action Action, highest bool) (Order, error) {
	var level priceLevel
	var ok bool
	if highest {
		level, ok = idx.Max()
	} else {
		level, ok = idx.Min()
	}
	if !ok {
		return Order{}, &UUIDNotFoundError{}
	}
	if len(level.ids) == 0 {
		return Order{}, &UUIDVecEmptyError{Action: action, Price: level.price}
	}
	id := level.ids[0]
	o, found := m.orders[id]
	if !found {
		return Order{}, &UUIDNotInOrdersError{Action: action, Price: level.price, ID: id}
	}
	return o, nil
}

// PeekHighestBuyOrder returns the highest-priced resting buy order
// without removing it.
func (m *Manager) PeekHighestBuyOrder() (Order, error) {
	return m.peekFront(m.buyIndex, Buy, true)
}

// PopHighestBuyOrder removes and returns the highest-priced resting
// buy order.
func (m *Manager) PopHighestBuyOrder() (Order, error) {
	o, err := m.peekFront(m.buyIndex, Buy, true)
	if err != nil {
		return Order{}, err
	}
	return m.RemoveOrder(o.ID)
}

// PeekLowestSellOrder returns the lowest-priced resting sell order
// without removing it.
func (m *Manager) PeekLowestSellOrder() (Order, error) {
	return m.peekFront(m.sellIndex, Sell, false)
}

// PopLowestSellOrder removes and returns the lowest-priced resting
// sell order.
func (m *Manager) PopLowestSellOrder() (Order, error) {
	o, err := m.peekFront(m.sellIndex, Sell, false)
	if err != nil {
		return Order{}, err
	}
	return m.RemoveOrder(o.ID)
}

// AddFinishedOrder records a terminal Executed order's paid fee into
// the book's running fee total. Returns FinishedOrderStateError for
// any order not in the Executed state.
func (m *Manager) AddFinishedOrder(o Order) error {
	if o.State != Executed {
		return &FinishedOrderStateError{Actual: o.State}
	}
	if o.PaidFeeAsset != nil {
		m.totalFee.MergeAsset(asset.FromAsset(*o.PaidFeeAsset))
	}
	return nil
}

// CalculateTotalAssets sums every order's currently locked collateral
// into a single Map, keyed by asset type.
func (m *Manager) CalculateTotalAssets() *asset.Map {
	total := asset.NewMap()
	for _, o := range m.orders {
		if o.LockedAsset != nil {
			total.MergeAsset(*o.LockedAsset)
		}
	}
	return total
}

// CalculateTotalFee returns the book's accumulated fee total.
func (m *Manager) CalculateTotalFee() *asset.Map {
	return m.totalFee.Clone()
}

// Len returns the number of orders currently held in the pool.
func (m *Manager) Len() int {
	return len(m.orders)
}

// Each calls fn for every order currently in the pool. Iteration order
// is unspecified.
func (m *Manager) Each(fn func(Order)) {
	for _, o := range m.orders {
		fn(o)
	}
}
