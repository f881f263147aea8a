package host

// FindButton searches children depth-first for the button with the given
// identifier. Raw text leaves are skipped since they cannot hold buttons.
func FindButton(children []Instance, id int) (*Button, bool) {
	for _, child := range children {
		switch c := child.(type) {
		case *Button:
			if c.ID == id {
				return c, true
			}
			if b, ok := FindButton(c.Children, id); ok {
				return b, true
			}
		case *View:
			if b, ok := FindButton(c.Children, id); ok {
				return b, true
			}
		case *Text:
			if b, ok := FindButton(c.Children, id); ok {
				return b, true
			}
		case *RawText:
		}
	}
	return nil, false
}

// Dispatch invokes the handler of the button with the given identifier.
// It reports whether a live button was found; an unknown id is a no-op.
func (c *Container) Dispatch(id int) bool {
	btn, ok := FindButton(c.Children, id)
	if !ok {
		return false
	}
	if btn.OnClick != nil {
		btn.OnClick()
	}
	return true
}
