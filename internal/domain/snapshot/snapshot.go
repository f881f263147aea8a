package snapshot

import (
	"fmt"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
)

// Node is an immutable, transfer-safe projection of a host instance.
// Implementations: View, Text, Button, Raw.
type Node interface {
	Tag() host.Tag
	isNode()
}

// View mirrors host.View
type View struct {
	Border   *int
	Children []Node
}

// Text mirrors host.Text. Color stays on the background side.
type Text struct {
	Type     host.TextType
	Text     *host.Scalar
	Children []Node
}

// Button mirrors host.Button without its handler
type Button struct {
	ID       int
	Children []Node
}

// Raw mirrors host.RawText
type Raw struct {
	Text host.Scalar
}

func (View) Tag() host.Tag   { return host.TagView }
func (Text) Tag() host.Tag   { return host.TagText }
func (Button) Tag() host.Tag { return host.TagBtn }
func (Raw) Tag() host.Tag    { return host.TagRaw }

func (View) isNode()   {}
func (Text) isNode()   {}
func (Button) isNode() {}
func (Raw) isNode()    {}

// Payload is the full tree sent on every commit
type Payload struct {
	Elements []Node `json:"elements"`
}

// Prepare snapshots the container's top-level instances
func Prepare(c *host.Container) Payload {
	elements := make([]Node, 0, len(c.Children))
	for _, child := range c.Children {
		elements = append(elements, ToSnapshot(child))
	}
	return Payload{Elements: elements}
}

// ToSnapshot converts a live instance. Empty children become nil so the
// field is left out of the wire form.
func ToSnapshot(inst host.Instance) Node {
	switch v := inst.(type) {
	case *host.View:
		var border *int
		if v.Border != nil {
			b := *v.Border
			border = &b
		}
		return View{Border: border, Children: convert(v.Children)}
	case *host.Text:
		var text *host.Scalar
		if v.Text != nil {
			t := *v.Text
			text = &t
		}
		return Text{Type: v.Type, Text: text, Children: convert(v.Children)}
	case *host.Button:
		return Button{ID: v.ID, Children: convert(v.Children)}
	case *host.RawText:
		return Raw{Text: v.Text}
	}
	panic(fmt.Sprintf("snapshot: unknown instance type %T", inst))
}

func convert(children []host.Instance) []Node {
	if len(children) < 1 {
		return nil
	}
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = ToSnapshot(c)
	}
	return out
}
