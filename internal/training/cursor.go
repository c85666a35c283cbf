package training

import "log"

// Cursor tracks the displayed question by id. The index is always derived
// from the catalog so it cannot go stale.
type Cursor struct {
	catalog   *Catalog
	currentID int64
}

// NewCursor creates a cursor positioned on the first question
func NewCursor(c *Catalog) *Cursor {
	return &Cursor{catalog: c, currentID: c.First().ID}
}

// CurrentID returns the id of the displayed question
func (c *Cursor) CurrentID() int64 {
	c.CurrentIndex()
	return c.currentID
}

// CurrentIndex returns the position of the displayed question
func (c *Cursor) CurrentIndex() int {
	i, ok := c.catalog.IndexOf(c.currentID)
	if !ok {
		log.Printf("Cursor on unknown question %d, resetting to first question", c.currentID)
		c.currentID = c.catalog.First().ID
		return 0
	}
	return i
}

// GoTo moves to the given question; unknown ids are ignored
func (c *Cursor) GoTo(questionID int64) bool {
	if !c.catalog.Contains(questionID) {
		return false
	}
	c.currentID = questionID
	return true
}

// GoNext advances one question; no-op on the last one
func (c *Cursor) GoNext() bool {
	i := c.CurrentIndex()
	if i >= c.catalog.Len()-1 {
		return false
	}
	c.currentID = c.catalog.At(i + 1).ID
	return true
}

// GoPrevious moves back one question; no-op on the first one
func (c *Cursor) GoPrevious() bool {
	i := c.CurrentIndex()
	if i == 0 {
		return false
	}
	c.currentID = c.catalog.At(i - 1).ID
	return true
}

// HasNext reports whether the "next" control is enabled
func (c *Cursor) HasNext() bool {
	return c.CurrentIndex() < c.catalog.Len()-1
}

// HasPrevious reports whether the "previous" control is enabled
func (c *Cursor) HasPrevious() bool {
	return c.CurrentIndex() > 0
}

// IsLast reports whether the cursor is on the final question
func (c *Cursor) IsLast() bool {
	return !c.HasNext()
}

// Reset moves back to the first question
func (c *Cursor) Reset() {
	c.currentID = c.catalog.First().ID
}
