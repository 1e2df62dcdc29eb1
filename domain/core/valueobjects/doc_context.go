package valueobjects

// DocContext is the ambient request state the engine reads: the current
// product, manual and topic plus the selected version per product.
// It is a value; the With* methods return modified copies so a caller's
// context is never changed by a callee.
type DocContext struct {
	product  string
	manual   string
	topic    string
	selected map[string]string
}

// NewDocContext creates a context for the given product
func NewDocContext(product string) DocContext {
	return DocContext{product: product}
}

// Product returns the current product
func (c DocContext) Product() string { return c.product }

// Manual returns the current manual
func (c DocContext) Manual() string { return c.manual }

// Topic returns the current topic
func (c DocContext) Topic() string { return c.topic }

// SelectedVersion returns the selected version for a product, or ""
func (c DocContext) SelectedVersion(product string) string {
	return c.selected[product]
}

// CurrentVersion returns the selected version of the current product
func (c DocContext) CurrentVersion() string {
	return c.selected[c.product]
}

// WithProduct returns a copy with a different current product
func (c DocContext) WithProduct(product string) DocContext {
	c.selected = c.cloneSelected()
	c.product = product
	return c
}

// WithManual returns a copy with a different current manual
func (c DocContext) WithManual(manual string) DocContext {
	c.selected = c.cloneSelected()
	c.manual = manual
	return c
}

// WithTopic returns a copy with a different current topic
func (c DocContext) WithTopic(topic string) DocContext {
	c.selected = c.cloneSelected()
	c.topic = topic
	return c
}

// WithSelectedVersion returns a copy where product has version selected
func (c DocContext) WithSelectedVersion(product, version string) DocContext {
	c.selected = c.cloneSelected()
	if version == "" {
		delete(c.selected, product)
	} else {
		c.selected[product] = version
	}
	return c
}

func (c DocContext) cloneSelected() map[string]string {
	clone := make(map[string]string, len(c.selected)+1)
	for k, v := range c.selected {
		clone[k] = v
	}
	return clone
}
