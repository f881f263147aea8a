package adapter

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
)

// Host element kinds understood by the adapter
const (
	KindView = "view"
	KindText = "text"
	KindBtn  = "btn"
)

// Prop names
const (
	PropBorder  = "border"
	PropColor   = "color"
	PropType    = "type"
	PropOnClick = "onClick"
)

// ViewProps are the attributes of a view element
type ViewProps struct {
	Border *int
}

// TextProps are the attributes of a text element
type TextProps struct {
	Color    string
	Type     host.TextType
	Children any
}

// ButtonProps are the attributes of a button element
type ButtonProps struct {
	OnClick func()
}

func viewProps(p reconcile.Props) ViewProps {
	var out ViewProps
	if raw, ok := p[PropBorder]; ok && raw != nil {
		s, isNum := host.ScalarOf(raw)
		if !isNum || !s.IsNumber() {
			panic(&ContractViolation{Op: "view props", Detail: fmt.Sprintf("border must be a finite number, got %T %v", raw, raw)})
		}
		if math.Abs(s.Float()) > math.MaxInt32 {
			panic(&ContractViolation{Op: "view props", Detail: fmt.Sprintf("border %v out of range", s.Float())})
		}
		b := int(math.Round(s.Float()))
		out.Border = &b
	}
	return out
}

func textProps(p reconcile.Props) TextProps {
	out := TextProps{Children: p[reconcile.ChildrenKey]}
	switch c := p[PropColor].(type) {
	case nil:
	case string:
		out.Color = c
	default:
		panic(&ContractViolation{Op: "text props", Detail: fmt.Sprintf("color must be a string, got %T", c)})
	}
	switch t := p[PropType].(type) {
	case nil:
	case string:
		out.Type = host.TextType(t)
	case host.TextType:
		out.Type = t
	default:
		panic(&ContractViolation{Op: "text props", Detail: fmt.Sprintf("type must be a string, got %T", t)})
	}
	if !out.Type.Valid() {
		panic(&ContractViolation{Op: "text props", Detail: fmt.Sprintf("unknown text type %q", out.Type)})
	}
	return out
}

func buttonProps(p reconcile.Props) ButtonProps {
	switch fn := p[PropOnClick].(type) {
	case nil:
		return ButtonProps{}
	case func():
		return ButtonProps{OnClick: fn}
	default:
		panic(&ContractViolation{Op: "btn props", Detail: fmt.Sprintf("onClick must be func(), got %T", fn)})
	}
}

// scalarChildren is the text-content branch: a bare string or number child
// is stored in place, anything else arrives as child instances.
func scalarChildren(children any) (*host.Scalar, bool) {
	s, ok := host.ScalarOf(children)
	if !ok {
		return nil, false
	}
	return &s, true
}
