package snapshot

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
)

// wireNode is the flat JSON shape shared by every variant
type wireNode struct {
	Tag      host.Tag      `json:"tag"`
	Border   *int          `json:"border,omitempty"`
	Type     host.TextType `json:"type,omitempty"`
	Text     *host.Scalar  `json:"text,omitempty"`
	ID       *int          `json:"id,omitempty"`
	Children []wireNode    `json:"children,omitempty"`
}

type wirePayload struct {
	Elements []wireNode `json:"elements"`
}

// MarshalJSON encodes the payload in the wire format
func (p Payload) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(wirePayload{Elements: toWireList(p.Elements, true)})
}

// UnmarshalJSON decodes and validates a wire payload
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w struct {
		Elements *[]wireNode `json:"elements"`
	}
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Elements == nil {
		return fmt.Errorf("snapshot payload has no elements")
	}
	elements, err := fromWireList(*w.Elements)
	if err != nil {
		return err
	}
	if elements == nil {
		elements = []Node{}
	}
	p.Elements = elements
	return nil
}

func toWireList(nodes []Node, keepEmpty bool) []wireNode {
	if len(nodes) == 0 && !keepEmpty {
		return nil
	}
	out := make([]wireNode, len(nodes))
	for i, n := range nodes {
		out[i] = toWire(n)
	}
	return out
}

func toWire(n Node) wireNode {
	switch v := n.(type) {
	case View:
		return wireNode{Tag: host.TagView, Border: v.Border, Children: toWireList(v.Children, false)}
	case Text:
		return wireNode{Tag: host.TagText, Type: v.Type, Text: v.Text, Children: toWireList(v.Children, false)}
	case Button:
		id := v.ID
		return wireNode{Tag: host.TagBtn, ID: &id, Children: toWireList(v.Children, false)}
	case Raw:
		text := v.Text
		return wireNode{Tag: host.TagRaw, Text: &text}
	}
	panic(fmt.Sprintf("snapshot: unknown node type %T", n))
}

func fromWireList(nodes []wireNode) ([]Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]Node, len(nodes))
	for i, w := range nodes {
		n, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func fromWire(w wireNode) (Node, error) {
	children, err := fromWireList(w.Children)
	if err != nil {
		return nil, err
	}
	switch w.Tag {
	case host.TagView:
		return View{Border: w.Border, Children: children}, nil
	case host.TagText:
		if !w.Type.Valid() {
			return nil, fmt.Errorf("unknown text type %q", w.Type)
		}
		return Text{Type: w.Type, Text: w.Text, Children: children}, nil
	case host.TagBtn:
		if w.ID == nil {
			return nil, fmt.Errorf("btn node without id")
		}
		return Button{ID: *w.ID, Children: children}, nil
	case host.TagRaw:
		if w.Text == nil {
			return nil, fmt.Errorf("raw node without text")
		}
		return Raw{Text: *w.Text}, nil
	}
	return nil, fmt.Errorf("unknown node tag %q", w.Tag)
}
