package host

// IDGenerator hands out button identifiers for one root. IDs start at 0
// and are never reused, even after the owning instance is removed.
type IDGenerator struct {
	next int
}

// Next returns the next identifier
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}

// Context is the per-root host state shared by every instance the adapter
// creates under that root.
type Context struct {
	ids      IDGenerator
	onCommit func(*Container)
}

// NewContext creates a host context. onCommit may be nil.
func NewContext(onCommit func(*Container)) *Context {
	return &Context{onCommit: onCommit}
}

// GenerateID allocates a fresh button identifier
func (c *Context) GenerateID() int {
	return c.ids.Next()
}

// OnCommit runs the commit callback once per completed reconciliation pass
func (c *Context) OnCommit(container *Container) {
	if c.onCommit != nil {
		c.onCommit(container)
	}
}

// Container is the root aggregate: the host context plus the top-level
// instances in render order.
type Container struct {
	Host     *Context
	Children []Instance
}

// NewContainer creates an empty root bound to ctx
func NewContainer(ctx *Context) *Container {
	return &Container{Host: ctx}
}

// Append pushes child onto the top-level sequence
func (c *Container) Append(child Instance) {
	c.Children = append(c.Children, child)
}

// Remove drops child from the top-level sequence by identity
func (c *Container) Remove(child Instance) {
	c.Children = Without(c.Children, child)
}

// Without returns children minus every element identical to target.
// Content equality is irrelevant: two equal-looking nodes are distinct.
func Without(children []Instance, target Instance) []Instance {
	out := children[:0]
	for _, c := range children {
		if c != target {
			out = append(out, c)
		}
	}
	// drop trailing references so removed instances can be collected
	for i := len(out); i < len(children); i++ {
		children[i] = nil
	}
	return out
}
