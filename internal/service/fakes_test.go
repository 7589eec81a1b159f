package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/keyshop/internal/domain"
)

// memStore is an in-memory store with the same counter and transition
// semantics as the Postgres implementation.
type memStore struct {
	banners    map[string]*domain.Banner
	categories map[int64]*domain.Category
	products   map[int64]*domain.Product
	keys       map[int64]*domain.Key
	carts      map[int64]map[int64]int // userID -> productID -> qty
	orders     map[int64]*domain.Order
	orderItems map[int64][]domain.OrderItem

	nextID int64
}

func decimalFrom(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newMemStore() *memStore {
	return &memStore{
		banners:    make(map[string]*domain.Banner),
		categories: make(map[int64]*domain.Category),
		products:   make(map[int64]*domain.Product),
		keys:       make(map[int64]*domain.Key),
		carts:      make(map[int64]map[int64]int),
		orders:     make(map[int64]*domain.Order),
		orderItems: make(map[int64][]domain.OrderItem),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addCategory(name string) *domain.Category {
	c := &domain.Category{ID: m.id(), Name: name}
	m.categories[c.ID] = c
	return c
}

func (m *memStore) addProduct(p domain.Product) *domain.Product {
	p.ID = m.id()
	m.products[p.ID] = &p
	return &p
}

func (m *memStore) addKey(k domain.Key) *domain.Key {
	k.ID = m.id()
	m.keys[k.ID] = &k
	if !k.Used {
		m.products[k.ProductID].AvailableKeys++
	}
	return &k
}

func (m *memStore) unusedCount(productID int64) int {
	n := 0
	for _, k := range m.keys {
		if k.ProductID == productID && !k.Used {
			n++
		}
	}
	return n
}

// CatalogStore

func (m *memStore) Banner(_ context.Context, name string) (*domain.Banner, error) {
	b, ok := m.banners[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) UpsertBannerImage(_ context.Context, name, image string) error {
	b, ok := m.banners[name]
	if !ok {
		b = &domain.Banner{ID: m.id(), Name: name}
		m.banners[name] = b
	}
	b.Image = sql.NullString{String: image, Valid: true}
	return nil
}

func (m *memStore) UpsertBannerDescription(_ context.Context, name, description string) error {
	b, ok := m.banners[name]
	if !ok {
		b = &domain.Banner{ID: m.id(), Name: name}
		m.banners[name] = b
	}
	b.Description = sql.NullString{String: description, Valid: true}
	return nil
}

func (m *memStore) BannerPages(_ context.Context) ([]string, error) {
	var names []string
	for name := range m.banners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *memStore) Categories(_ context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	for _, c := range m.categories {
		cats = append(cats, *c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (m *memStore) CreateCategory(_ context.Context, name string) (int64, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return 0, domain.ErrDuplicateCategory
		}
	}
	c := &domain.Category{ID: m.id(), Name: name}
	m.categories[c.ID] = c
	return c.ID, nil
}

func (m *memStore) Category(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ProductsByCategory(_ context.Context, categoryID int64) ([]domain.Product, error) {
	var products []domain.Product
	for _, p := range m.products {
		if p.CategoryID == categoryID {
			products = append(products, *p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (m *memStore) Product(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CreateProduct(_ context.Context, p *domain.Product) (int64, error) {
	cp := *p
	cp.ID = m.id()
	m.products[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memStore) UpdateProduct(_ context.Context, p *domain.Product) error {
	cur, ok := m.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.CategoryID = p.CategoryID
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.Image = p.Image
	return nil
}

func (m *memStore) DeleteProduct(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	for kid, k := range m.keys {
		if k.ProductID == id {
			delete(m.keys, kid)
		}
	}
	return nil
}

// KeyStore

func (m *memStore) Key(_ context.Context, id int64) (*domain.Key, error) {
	k, ok := m.keys[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *memStore) KeyNameTaken(_ context.Context, productID int64, name string, excludeID int64) (bool, error) {
	for _, k := range m.keys {
		if k.ProductID == productID && k.Name == name && k.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertKey(_ context.Context, k *domain.Key) (int64, error) {
	p, ok := m.products[k.ProductID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	cp := *k
	cp.ID = m.id()
	m.keys[cp.ID] = &cp
	p.AvailableKeys++
	return cp.ID, nil
}

func (m *memStore) UpdateKey(_ context.Context, k *domain.Key) error {
	cur, ok := m.keys[k.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Name = k.Name
	cur.Value = k.Value
	cur.File = k.File
	cur.ExpiresAt = k.ExpiresAt
	return nil
}

func (m *memStore) DeleteKey(_ context.Context, id int64) error {
	k, ok := m.keys[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.keys, id)
	if !k.Used {
		m.products[k.ProductID].AvailableKeys--
	}
	return nil
}

func (m *memStore) keysOf(productID int64, unusedOnly bool) []domain.Key {
	var keys []domain.Key
	for _, k := range m.keys {
		if k.ProductID != productID {
			continue
		}
		if unusedOnly && k.Used {
			continue
		}
		keys = append(keys, *k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys
}

func (m *memStore) KeysByProduct(_ context.Context, productID int64, unusedOnly bool) ([]domain.Key, error) {
	return m.keysOf(productID, unusedOnly), nil
}

func (m *memStore) AllKeys(_ context.Context) ([]domain.Key, error) {
	var keys []domain.Key
	for _, k := range m.keys {
		keys = append(keys, *k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (m *memStore) FreeKeys(_ context.Context) ([]domain.Key, error) {
	var keys []domain.Key
	for _, k := range m.keys {
		if !k.Used {
			keys = append(keys, *k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (m *memStore) ExpiredKeys(_ context.Context, now time.Time) ([]domain.Key, error) {
	var keys []domain.Key
	for _, k := range m.keys {
		if k.Expired(now) {
			keys = append(keys, *k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys, nil
}

func (m *memStore) ConsumeKeys(_ context.Context, productID int64, qty int, buyerID int64) ([]domain.Key, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if p.AvailableKeys < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Want: qty, Have: p.AvailableKeys}
	}
	unused := m.keysOf(productID, true)
	if len(unused) < qty {
		return nil, &domain.InsufficientStockError{ProductID: productID, Want: qty, Have: len(unused)}
	}
	picked := unused[:qty]
	for i := range picked {
		k := m.keys[picked[i].ID]
		k.Used = true
		k.OwnerID = sql.NullInt64{Int64: buyerID, Valid: true}
		picked[i] = *k
	}
	p.AvailableKeys -= qty
	return picked, nil
}

// CartStore

func (m *memStore) AddToCart(_ context.Context, userID, productID int64) error {
	if _, ok := m.products[productID]; !ok {
		return domain.ErrNotFound
	}
	if m.carts[userID] == nil {
		m.carts[userID] = make(map[int64]int)
	}
	m.carts[userID][productID]++
	return nil
}

func (m *memStore) CartItems(_ context.Context, userID int64) ([]domain.CartItem, error) {
	var items []domain.CartItem
	for pid, qty := range m.carts[userID] {
		p := m.products[pid]
		items = append(items, domain.CartItem{
			UserID:    userID,
			ProductID: pid,
			Quantity:  qty,
			Name:      p.Name,
			Price:     p.Price,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (m *memStore) ClearCart(_ context.Context, userID int64) error {
	delete(m.carts, userID)
	return nil
}

// OrderStore

func (m *memStore) CreateOrder(_ context.Context, o *domain.Order, items []domain.CartItem) (int64, error) {
	o.ID = m.id()
	o.Status = domain.OrderPending
	o.Total = decimal.Zero
	for _, it := range items {
		o.Total = o.Total.Add(it.Subtotal())
		m.orderItems[o.ID] = append(m.orderItems[o.ID], domain.OrderItem{
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	cp := *o
	m.orders[o.ID] = &cp
	delete(m.carts, o.UserID)
	return o.ID, nil
}

func (m *memStore) Order(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) LatestPendingOrder(_ context.Context, userID int64) (*domain.Order, error) {
	var latest *domain.Order
	for _, o := range m.orders {
		if o.UserID != userID || o.Status != domain.OrderPending {
			continue
		}
		if latest == nil || o.ID > latest.ID {
			latest = o
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) OrderItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	return m.orderItems[orderID], nil
}

func (m *memStore) transition(id int64, to domain.OrderStatus, from ...domain.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	for _, st := range from {
		if o.Status == st {
			o.Status = to
			return nil
		}
	}
	return domain.ErrOrderNotPending
}

func (m *memStore) MarkOrderPaid(_ context.Context, id int64) error {
	return m.transition(id, domain.OrderPaid, domain.OrderPending)
}

func (m *memStore) RejectOrder(_ context.Context, id int64) error {
	return m.transition(id, domain.OrderRejected, domain.OrderPending, domain.OrderPaid)
}

func (m *memStore) FulfillOrder(ctx context.Context, orderID, buyerID int64) ([]domain.Key, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.Status != domain.OrderPending && o.Status != domain.OrderPaid {
		return nil, domain.ErrOrderNotPending
	}
	// All-or-nothing: verify every line before touching anything.
	for _, it := range m.orderItems[orderID] {
		p, ok := m.products[it.ProductID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		if p.AvailableKeys < it.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: it.ProductID,
				Want:      it.Quantity,
				Have:      p.AvailableKeys,
			}
		}
	}
	var dispensed []domain.Key
	for _, it := range m.orderItems[orderID] {
		keys, err := m.ConsumeKeys(ctx, it.ProductID, it.Quantity, buyerID)
		if err != nil {
			return nil, err
		}
		dispensed = append(dispensed, keys...)
	}
	o.Status = domain.OrderCompleted
	return dispensed, nil
}
