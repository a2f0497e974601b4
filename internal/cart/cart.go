package cart

import (
	"github.com/google/uuid"

	"watermelon-stand/internal/domain"
)

// Line is one entry of a session cart. Name, Price and ImageURL are frozen
// from the catalog at the moment of first add; later catalog edits do not
// touch them. Quantity is always at least 1 while the line exists.
type Line struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"imageUrl"`
	Quantity  int       `json:"quantity"`
}

// Subtotal returns quantity times the frozen unit price.
func (l Line) Subtotal() float64 {
	return float64(l.Quantity) * l.Price
}

// Snapshot is the cart state at one point in time: lines in first-add order
// plus the derived totals.
type Snapshot struct {
	Lines     []Line  `json:"lines"`
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
}

// Cart is an in-memory, per-session multiset of products. It is not safe for
// concurrent use on its own; the owning session serialises access.
type Cart struct {
	lines map[uuid.UUID]*Line
	order []uuid.UUID // first-add order, for stable snapshots
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]*Line)}
}

// Add puts one unit of the product in the cart. A repeated add increments
// the existing line; the frozen attributes are taken on first add only.
func (c *Cart) Add(product *domain.Product) {
	if line, ok := c.lines[product.ID]; ok {
		line.Quantity++
		return
	}
	c.lines[product.ID] = &Line{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		ImageURL:  product.ImageURL,
		Quantity:  1,
	}
	c.order = append(c.order, product.ID)
}

// SetQuantity sets a line's quantity. Any quantity at or below zero removes
// the line, so a line with quantity 0 never exists.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if line, ok := c.lines[productID]; ok {
		line.Quantity = quantity
	}
}

// Remove deletes the line unconditionally. Removing an absent product is a
// no-op.
func (c *Cart) Remove(productID uuid.UUID) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart. Invoked by successful checkout.
func (c *Cart) Clear() {
	c.lines = make(map[uuid.UUID]*Line)
	c.order = nil
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Snapshot returns the current lines, item count and subtotal.
func (c *Cart) Snapshot() Snapshot {
	snap := Snapshot{Lines: make([]Line, 0, len(c.order))}
	for _, id := range c.order {
		line := c.lines[id]
		snap.Lines = append(snap.Lines, *line)
		snap.ItemCount += line.Quantity
		snap.Subtotal += line.Subtotal()
	}
	return snap
}

// Items projects the cart into order items: id, name, quantity and the
// frozen unit price. The image URL deliberately does not carry over.
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.order))
	for _, id := range c.order {
		line := c.lines[id]
		items = append(items, domain.OrderItem{
			ID:       line.ProductID,
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}
	return items
}
