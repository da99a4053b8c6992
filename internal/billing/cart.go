package billing

import "github.com/partsledger/partsledger/internal/shared"

// CartPart is the slice of part data a cart line needs.
type CartPart struct {
	ID   string
	Name string
	Rate float64
}

// Snapshot is the catalog view a cart resolves part IDs against.
type Snapshot map[string]CartPart

// Line is a draft invoice line. A line without a part is a placeholder
// and contributes nothing to the total.
type Line struct {
	PartID   string  `json:"part_id"`
	PartName string  `json:"part_name"`
	Quantity int     `json:"quantity"`
	Rate     float64 `json:"rate"`
}

// Cart is an in-memory invoice draft. Totals always derive from the
// current lines; nothing is cached.
type Cart struct {
	Lines []Line `json:"lines"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine appends an empty line and returns its index. New lines start
// at quantity 1 so picking a part immediately yields a sellable line.
func (c *Cart) AddLine() int {
	c.Lines = append(c.Lines, Line{Quantity: 1})
	return len(c.Lines) - 1
}

// RemoveLine deletes the line at index, shifting later lines down.
func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineOutOfRange
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return nil
}

// SetLinePart binds a part from the catalog snapshot to the line,
// snapshotting its current rate. An unknown ID leaves the line
// untouched. Changing the part keeps the quantity.
func (c *Cart) SetLinePart(index int, partID string, parts Snapshot) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineOutOfRange
	}
	part, ok := parts[partID]
	if !ok {
		return ErrUnknownPart
	}
	line := &c.Lines[index]
	line.PartID = part.ID
	line.PartName = part.Name
	line.Rate = part.Rate
	return nil
}

// SetLineQuantity updates the quantity on a line. Quantities are
// strictly positive integers; removing a line is the way to zero it.
func (c *Cart) SetLineQuantity(index, quantity int) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineOutOfRange
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	c.Lines[index].Quantity = quantity
	return nil
}

// LineTotal returns quantity times rate for a bound line, rounded to
// two decimals. Placeholder lines total zero.
func (l Line) LineTotal() float64 {
	if l.PartID == "" {
		return 0
	}
	return shared.LineTotal(l.Quantity, l.Rate)
}

// Total sums all line totals, rounded to two decimals.
func (c *Cart) Total() float64 {
	amounts := make([]float64, 0, len(c.Lines))
	for _, line := range c.Lines {
		amounts = append(amounts, line.LineTotal())
	}
	return shared.SumAmounts(amounts...)
}

// SellableLines returns lines bound to a part, the ones that become
// bill items on submission.
func (c *Cart) SellableLines() []Line {
	lines := make([]Line, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.PartID != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
