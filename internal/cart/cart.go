// Package cart holds the pre-checkout product selection for one shopper.
package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// SchemaVersion is written with every persisted cart.
	SchemaVersion = 1
	// MaxQuantity caps a single line, merged adds included.
	MaxQuantity = 99
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrQuantityTooLarge = fmt.Errorf("quantity must be at most %d", MaxQuantity)
	ErrLineNotFound     = errors.New("product is not in the cart")
)

// Line is one product in the cart. Name and price are captured when the line is
// first added and are display hints only; checkout re-prices from the catalog.
type Line struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
}

// Cart is an ordered set of lines keyed by product id.
type Cart struct {
	version int
	lines   []Line
}

// New returns an empty cart at the current schema version.
func New() *Cart {
	return &Cart{version: SchemaVersion}
}

// AddItem merges qty into an existing line or appends a new one.
func (c *Cart) AddItem(productID uuid.UUID, name string, price int64, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if qty > MaxQuantity {
		return ErrQuantityTooLarge
	}
	if i := c.index(productID); i >= 0 {
		if c.lines[i].Quantity+qty > MaxQuantity {
			return ErrQuantityTooLarge
		}
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Quantity:  qty,
	})
	return nil
}

// RemoveItem deletes the line for productID; absent ids are a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// UpdateQuantity overwrites the quantity of an existing line. A quantity below
// one or above MaxQuantity is rejected and the cart is left unchanged.
func (c *Cart) UpdateQuantity(productID uuid.UUID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if qty > MaxQuantity {
		return ErrQuantityTooLarge
	}
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines[i].Quantity = qty
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Total is Σ(price × quantity) over the current lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.Price * int64(line.Quantity)
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Version reports the schema version the cart was loaded from.
func (c *Cart) Version() int { return c.version }

func (c *Cart) index(productID uuid.UUID) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

type persisted struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

// MarshalJSON always writes the current schema version.
func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(persisted{Version: SchemaVersion, Lines: lines})
}

// UnmarshalJSON accepts the versioned object or the legacy bare array (version 0).
// Duplicate product ids are merged and lines with a quantity below one are dropped.
func (c *Cart) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	var doc persisted
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		doc.Version = SchemaVersion
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &doc.Lines); err != nil {
			return fmt.Errorf("decode legacy cart: %w", err)
		}
	default:
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return fmt.Errorf("decode cart: %w", err)
		}
		if doc.Version > SchemaVersion {
			return fmt.Errorf("unsupported cart version %d", doc.Version)
		}
	}

	c.version = doc.Version
	c.lines = nil
	for _, line := range doc.Lines {
		if line.Quantity < 1 || line.ProductID == uuid.Nil {
			continue
		}
		if i := c.index(line.ProductID); i >= 0 {
			c.lines[i].Quantity += line.Quantity
			continue
		}
		c.lines = append(c.lines, line)
	}
	return nil
}
