package main

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/categories"
	"storefront/internal/domain/collections"
	"storefront/internal/domain/customers"
	"storefront/internal/domain/orders"
	"storefront/internal/domain/products"
	"storefront/internal/events"
	"storefront/internal/payments"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB backs every in-memory store used by the handler tests.
type memDB struct {
	mu sync.Mutex

	categories    map[primitive.ObjectID]*categories.Category
	subcategories map[primitive.ObjectID]*categories.Subcategory
	products      map[primitive.ObjectID]*products.Product
	collections   map[primitive.ObjectID]*collections.Collection
	customers     map[string]*customers.Customer
	orders        map[primitive.ObjectID]*orders.Order
}

func newMemDB() *memDB {
	return &memDB{
		categories:    map[primitive.ObjectID]*categories.Category{},
		subcategories: map[primitive.ObjectID]*categories.Subcategory{},
		products:      map[primitive.ObjectID]*products.Product{},
		collections:   map[primitive.ObjectID]*collections.Collection{},
		customers:     map[string]*customers.Customer{},
		orders:        map[primitive.ObjectID]*orders.Order{},
	}
}

// passthroughTx runs fn directly and counts how often it was asked to.
type passthroughTx struct {
	mu    sync.Mutex
	calls int
}

func (t *passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return fn(ctx)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	out := make([]primitive.ObjectID, 0, len(ids))
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

func page[T any](all []T, limit, offset int) ([]T, int) {
	total := len(all)
	if offset >= total {
		return []T{}, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total
}

// categories

type memCategories struct{ *memDB }

func (m memCategories) Create(_ context.Context, c *categories.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.categories {
		if other.Slug == c.Slug {
			return categories.ErrDuplicateSlug
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Subcategories == nil {
		c.Subcategories = []primitive.ObjectID{}
	}
	if c.Products == nil {
		c.Products = []primitive.ObjectID{}
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m memCategories) GetByID(_ context.Context, id primitive.ObjectID) (*categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, categories.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCategories) GetBySlug(_ context.Context, slug string) (*categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, categories.ErrCategoryNotFound
}

func (m memCategories) List(_ context.Context, limit, offset int) ([]*categories.Category, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*categories.Category, 0, len(m.categories))
	for _, c := range m.categories {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	list, total := page(all, limit, offset)
	return list, total, nil
}

func (m memCategories) Update(_ context.Context, c *categories.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return categories.ErrCategoryNotFound
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m memCategories) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return categories.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m memCategories) SlugExists(_ context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.categories {
		if c.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memCategories) AddSubcategory(_ context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return categories.ErrCategoryNotFound
	}
	c.Subcategories = addID(c.Subcategories, subcategoryID)
	return nil
}

func (m memCategories) RemoveSubcategory(_ context.Context, categoryID, subcategoryID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.categories[categoryID]; ok {
		c.Subcategories, _ = removeID(c.Subcategories, subcategoryID)
	}
	return nil
}

func (m memCategories) AddProduct(_ context.Context, categoryIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range categoryIDs {
		if c, ok := m.categories[id]; ok {
			c.Products = addID(c.Products, productID)
		}
	}
	return nil
}

func (m memCategories) RemoveProduct(_ context.Context, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		c.Products, _ = removeID(c.Products, productID)
	}
	return nil
}

// subcategories

type memSubcategories struct{ *memDB }

func (m memSubcategories) Create(_ context.Context, s *categories.Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	if s.Products == nil {
		s.Products = []primitive.ObjectID{}
	}
	cp := *s
	m.subcategories[s.ID] = &cp
	return nil
}

func (m memSubcategories) GetByID(_ context.Context, id primitive.ObjectID) (*categories.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subcategories[id]
	if !ok {
		return nil, categories.ErrSubcategoryNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSubcategories) ListByCategory(_ context.Context, categoryID primitive.ObjectID) ([]*categories.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*categories.Subcategory{}
	for _, s := range m.subcategories {
		if s.Category == categoryID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memSubcategories) Update(_ context.Context, s *categories.Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[s.ID]; !ok {
		return categories.ErrSubcategoryNotFound
	}
	cp := *s
	m.subcategories[s.ID] = &cp
	return nil
}

func (m memSubcategories) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subcategories[id]; !ok {
		return categories.ErrSubcategoryNotFound
	}
	delete(m.subcategories, id)
	return nil
}

func (m memSubcategories) DeleteByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.subcategories {
		if s.Category == categoryID {
			delete(m.subcategories, id)
			n++
		}
	}
	return n, nil
}

func (m memSubcategories) AddProduct(_ context.Context, subcategoryIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range subcategoryIDs {
		if s, ok := m.subcategories[id]; ok {
			s.Products = addID(s.Products, productID)
		}
	}
	return nil
}

func (m memSubcategories) RemoveProduct(_ context.Context, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subcategories {
		s.Products, _ = removeID(s.Products, productID)
	}
	return nil
}

// products

type memProducts struct{ *memDB }

func (m memProducts) Create(_ context.Context, p *products.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.products {
		if other.Slug == p.Slug {
			return products.ErrDuplicateSlug
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m memProducts) GetByID(_ context.Context, id primitive.ObjectID) (*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, products.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memProducts) GetBySlug(_ context.Context, slug string) (*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, products.ErrProductNotFound
}

func (m memProducts) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]*products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*products.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memProducts) List(_ context.Context, f products.Filter, limit, offset int) ([]*products.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(f.Query)
	all := []*products.Product{}
	for _, p := range m.products {
		switch {
		case !f.Category.IsZero() && !containsID(p.Categories, f.Category):
			continue
		case !f.Subcategory.IsZero() && !containsID(p.Subcategories, f.Subcategory):
			continue
		case !f.Collection.IsZero() && !containsID(p.Collections, f.Collection):
			continue
		case q != "" && !strings.Contains(strings.ToLower(p.Title), q):
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	list, total := page(all, limit, offset)
	return list, total, nil
}

func (m memProducts) Update(_ context.Context, p *products.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return products.ErrProductNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return products.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m memProducts) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.products)), nil
}

func (m memProducts) UnlinkCategory(_ context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		var changed bool
		p.Categories, changed = removeID(p.Categories, categoryID)
		for _, sid := range subcategoryIDs {
			var removed bool
			p.Subcategories, removed = removeID(p.Subcategories, sid)
			changed = changed || removed
		}
		if changed {
			n++
		}
	}
	return n, nil
}

func (m memProducts) UnlinkSubcategory(_ context.Context, subcategoryID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		var removed bool
		if p.Subcategories, removed = removeID(p.Subcategories, subcategoryID); removed {
			n++
		}
	}
	return n, nil
}

func (m memProducts) UnlinkCollection(_ context.Context, collectionID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		var removed bool
		if p.Collections, removed = removeID(p.Collections, collectionID); removed {
			n++
		}
	}
	return n, nil
}

// collections

type memCollections struct{ *memDB }

func (m memCollections) Create(_ context.Context, c *collections.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Products == nil {
		c.Products = []primitive.ObjectID{}
	}
	cp := *c
	m.collections[c.ID] = &cp
	return nil
}

func (m memCollections) GetByID(_ context.Context, id primitive.ObjectID) (*collections.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return nil, collections.ErrCollectionNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCollections) List(_ context.Context, limit, offset int) ([]*collections.Collection, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*collections.Collection{}
	for _, c := range m.collections {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	list, total := page(all, limit, offset)
	return list, total, nil
}

func (m memCollections) Update(_ context.Context, c *collections.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[c.ID]; !ok {
		return collections.ErrCollectionNotFound
	}
	cp := *c
	m.collections[c.ID] = &cp
	return nil
}

func (m memCollections) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[id]; !ok {
		return collections.ErrCollectionNotFound
	}
	delete(m.collections, id)
	return nil
}

func (m memCollections) TitleExists(_ context.Context, title string, excludeID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.collections {
		if strings.EqualFold(c.Title, title) && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memCollections) AddProduct(_ context.Context, collectionIDs []primitive.ObjectID, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range collectionIDs {
		if c, ok := m.collections[id]; ok {
			c.Products = addID(c.Products, productID)
		}
	}
	return nil
}

func (m memCollections) RemoveProduct(_ context.Context, productID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.collections {
		c.Products, _ = removeID(c.Products, productID)
	}
	return nil
}

// customers

type memCustomers struct{ *memDB }

func (m memCustomers) Upsert(_ context.Context, c *customers.Customer) (*customers.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := m.customers[c.ExternalID]
	if !ok {
		existing = &customers.Customer{
			ID:         primitive.NewObjectID(),
			ExternalID: c.ExternalID,
			Orders:     []primitive.ObjectID{},
			CreatedAt:  now,
		}
		m.customers[c.ExternalID] = existing
	}
	existing.Name = c.Name
	existing.Email = c.Email
	existing.UpdatedAt = now
	cp := *existing
	return &cp, nil
}

func (m memCustomers) GetByID(_ context.Context, id primitive.ObjectID) (*customers.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.customers {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, customers.ErrCustomerNotFound
}

func (m memCustomers) GetByExternalID(_ context.Context, externalID string) (*customers.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[externalID]
	if !ok {
		return nil, customers.ErrCustomerNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCustomers) List(_ context.Context, query string, limit, offset int) ([]*customers.Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	all := []*customers.Customer{}
	for _, c := range m.customers {
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.Email), q) {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	list, total := page(all, limit, offset)
	return list, total, nil
}

func (m memCustomers) AddOrder(_ context.Context, externalID string, orderID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[externalID]
	if !ok {
		return customers.ErrCustomerNotFound
	}
	c.Orders = addID(c.Orders, orderID)
	return nil
}

func (m memCustomers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.customers)), nil
}

// orders

type memOrders struct{ *memDB }

func (m memOrders) Create(_ context.Context, o *orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	cp.TrackingHistory = append([]orders.TrackingEntry(nil), o.TrackingHistory...)
	m.orders[o.ID] = &cp
	return nil
}

func (m memOrders) GetByID(_ context.Context, id primitive.ObjectID) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	cp := *o
	cp.TrackingHistory = append([]orders.TrackingEntry(nil), o.TrackingHistory...)
	return &cp, nil
}

func (m memOrders) List(_ context.Context, status orders.Status, limit, offset int) ([]*orders.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := []*orders.Order{}
	for _, o := range m.orders {
		if status != "" && o.Status != status {
			continue
		}
		cp := *o
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	list, total := page(all, limit, offset)
	return list, total, nil
}

func (m memOrders) AppendTracking(_ context.Context, id primitive.ObjectID, from orders.Status, entry orders.TrackingEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if o.Status != from {
		return orders.ErrStaleOrder
	}
	o.TrackingHistory = append(o.TrackingHistory, entry)
	o.Status = entry.Status
	o.UpdatedAt = entry.Timestamp
	return nil
}

func (m memOrders) ListByCustomer(_ context.Context, customerExternalID string) ([]*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*orders.Order{}
	for _, o := range m.orders {
		if o.CustomerExternalID == customerExternalID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memOrders) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.orders)), nil
}

func (m memOrders) TotalRevenue(context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, o := range m.orders {
		if o.Status != orders.StatusCanceled {
			sum += o.TotalAmount
		}
	}
	return sum, nil
}

func (m memOrders) SalesPerMonth(_ context.Context, year int) ([]orders.MonthlySales, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byMonth := map[int]float64{}
	for _, o := range m.orders {
		if o.CreatedAt.Year() == year && o.Status != orders.StatusCanceled {
			byMonth[int(o.CreatedAt.Month())] += o.TotalAmount
		}
	}
	return orders.FillMonths(year, byMonth), nil
}

// integrations

type fakeUploader struct {
	mu       sync.Mutex
	uploaded int
	deleted  []string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, r io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded++
	return "https://res.cloudinary.com/demo/image/upload/v1/storefront/asset.png", nil
}

func (f *fakeUploader) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type sentMail struct {
	template string
	email    string
	data     any
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(templateFile, _, email string, data any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{template: templateFile, email: email, data: data})
	return 250, nil
}

func (m *recordingMailer) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.template)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// fakeGateway stands in for the hosted payment provider.
type fakeGateway struct {
	mu        sync.Mutex
	requests  []payments.CheckoutRequest
	completed *payments.CompletedCheckout
	parseErr  error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *fakeGateway) ParseCompletedCheckout(_ context.Context, _ []byte, signature string) (*payments.CompletedCheckout, error) {
	if signature == "" {
		return nil, payments.ErrInvalidSignature
	}
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	cp := *g.completed
	return &cp, nil
}
