package pricing

// Cart maps product identifiers to a size/quantity map. A quantity of zero
// is never stored: setting a line to zero removes it entirely.
type Cart map[string]map[string]int

// NewCart returns an empty cart.
func NewCart() Cart {
	return make(Cart)
}

// Add increments the quantity for the given product and size. Non-positive
// increments are ignored.
func (c Cart) Add(productID, size string, qty int) {
	if productID == "" || size == "" || qty <= 0 {
		return
	}
	sizes, ok := c[productID]
	if !ok {
		sizes = make(map[string]int)
		c[productID] = sizes
	}
	sizes[size] += qty
}

// SetQuantity replaces the quantity for the given product and size. Zero or
// negative removes the line, and the product entry once its last size is gone.
func (c Cart) SetQuantity(productID, size string, qty int) {
	if productID == "" || size == "" {
		return
	}
	if qty <= 0 {
		sizes, ok := c[productID]
		if !ok {
			return
		}
		delete(sizes, size)
		if len(sizes) == 0 {
			delete(c, productID)
		}
		return
	}
	sizes, ok := c[productID]
	if !ok {
		sizes = make(map[string]int)
		c[productID] = sizes
	}
	sizes[size] = qty
}

// Quantity returns the stored quantity for a product and size, zero when
// the line is absent.
func (c Cart) Quantity(productID, size string) int {
	if sizes, ok := c[productID]; ok {
		return sizes[size]
	}
	return 0
}

// Count returns the total number of units across all lines.
func (c Cart) Count() int {
	var total int
	for _, sizes := range c {
		for _, qty := range sizes {
			if qty > 0 {
				total += qty
			}
		}
	}
	return total
}

// IsEmpty reports whether the cart holds no positive-quantity lines.
func (c Cart) IsEmpty() bool {
	return c.Count() == 0
}

// Clone returns a deep copy so callers can snapshot cart state.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for productID, sizes := range c {
		copied := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			copied[size] = qty
		}
		out[productID] = copied
	}
	return out
}

// Normalize drops empty and non-positive entries in place and returns the
// cart. Useful after deserializing client-supplied state.
func (c Cart) Normalize() Cart {
	for productID, sizes := range c {
		for size, qty := range sizes {
			if qty <= 0 {
				delete(sizes, size)
			}
		}
		if len(sizes) == 0 {
			delete(c, productID)
		}
	}
	return c
}
