// Package cart holds the shopping cart that checkout reads from and clears once an order is settled.
package cart

import (
	"fmt"
	"sync"

	"github.com/MarcGrol/checkoutflow/services/checkoutapi"
)

type Line struct {
	LineID            string
	ProductID         string
	Name              string
	UnitPrice         checkoutapi.Money
	Quantity          int
	SelectedOptionIDs []string
	VariantLabel      string
}

func (l Line) Total() checkoutapi.Money {
	return l.UnitPrice * checkoutapi.Money(l.Quantity)
}

func (l Line) OrderItem() checkoutapi.OrderItem {
	return checkoutapi.OrderItem{
		LineID:            l.LineID,
		ProductID:         l.ProductID,
		Name:              l.Name,
		UnitPrice:         l.UnitPrice,
		Quantity:          l.Quantity,
		SelectedOptionIDs: append([]string(nil), l.SelectedOptionIDs...),
		VariantLabel:      l.VariantLabel,
	}
}

// Cart is safe for concurrent use. Every mutation bumps the version.
type Cart struct {
	sync.Mutex
	lines   []Line
	version uint64
}

func New(lines ...Line) *Cart {
	c := &Cart{}
	c.lines = copyLines(lines)
	return c
}

func (c *Cart) Lines() []Line {
	c.Lock()
	defer c.Unlock()
	return copyLines(c.lines)
}

func (c *Cart) Subtotal() checkoutapi.Money {
	c.Lock()
	defer c.Unlock()

	total := checkoutapi.Money(0)
	for _, l := range c.lines {
		total += l.Total()
	}
	return total
}

func (c *Cart) ItemCount() int {
	c.Lock()
	defer c.Unlock()

	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return c.ItemCount() == 0
}

func (c *Cart) Version() uint64 {
	c.Lock()
	defer c.Unlock()
	return c.version
}

func (c *Cart) Replace(lines []Line) {
	c.Lock()
	defer c.Unlock()
	c.lines = copyLines(lines)
	c.version++
}

func (c *Cart) Add(line Line) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("line %s: quantity must be positive", line.LineID)
	}

	c.Lock()
	defer c.Unlock()

	for i, existing := range c.lines {
		if existing.LineID == line.LineID {
			c.lines[i].Quantity += line.Quantity
			c.version++
			return nil
		}
	}
	c.lines = append(c.lines, line)
	c.version++
	return nil
}

// SetQuantity removes the line when quantity drops to zero.
func (c *Cart) SetQuantity(lineID string, quantity int) error {
	c.Lock()
	defer c.Unlock()

	for i, existing := range c.lines {
		if existing.LineID != lineID {
			continue
		}
		if quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = quantity
		}
		c.version++
		return nil
	}
	return fmt.Errorf("line %s not in cart", lineID)
}

func (c *Cart) Remove(lineID string) error {
	return c.SetQuantity(lineID, 0)
}

func (c *Cart) Clear() {
	c.Lock()
	defer c.Unlock()
	c.lines = nil
	c.version++
}

func copyLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	result := make([]Line, len(lines))
	copy(result, lines)
	return result
}
