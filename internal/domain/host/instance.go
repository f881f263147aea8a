package host

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
)

// Tag identifies an instance variant
type Tag string

const (
	TagView Tag = "view"
	TagText Tag = "text"
	TagBtn  Tag = "btn"
	TagRaw  Tag = "raw"
)

// TextType is the style kind of a text node
type TextType string

const (
	TextHeader    TextType = "header"
	TextParagraph TextType = "paragraph"
	TextSpan      TextType = "span"
)

// Valid reports whether t is one of the known style kinds or empty
func (t TextType) Valid() bool {
	switch t {
	case "", TextHeader, TextParagraph, TextSpan:
		return true
	}
	return false
}

// Instance is a live host node. The set of implementations is closed:
// *View, *Text, *Button and *RawText.
type Instance interface {
	Tag() Tag
	isInstance()
}

// Parent is an instance that owns an ordered children sequence
type Parent interface {
	Instance
	Kids() []Instance
	SetKids([]Instance)
}

// View is a container node
type View struct {
	Border   *int
	Children []Instance
}

// Text is a styled text node. Text holds the payload when the declared
// children were a bare scalar; otherwise content arrives as child instances.
type Text struct {
	Color    string
	Type     TextType
	Text     *Scalar
	Children []Instance
}

// Button is an interactive node addressed by ID from the foreground
type Button struct {
	ID       int
	OnClick  func()
	Children []Instance
}

// RawText is a scalar text leaf
type RawText struct {
	Text Scalar
}

func (*View) Tag() Tag    { return TagView }
func (*Text) Tag() Tag    { return TagText }
func (*Button) Tag() Tag  { return TagBtn }
func (*RawText) Tag() Tag { return TagRaw }

func (*View) isInstance()    {}
func (*Text) isInstance()    {}
func (*Button) isInstance()  {}
func (*RawText) isInstance() {}

func (v *View) Kids() []Instance   { return v.Children }
func (t *Text) Kids() []Instance   { return t.Children }
func (b *Button) Kids() []Instance { return b.Children }

func (v *View) SetKids(c []Instance)   { v.Children = c }
func (t *Text) SetKids(c []Instance)   { t.Children = c }
func (b *Button) SetKids(c []Instance) { b.Children = c }

// AsParent returns the instance as a Parent, or false for leaves
func AsParent(inst Instance) (Parent, bool) {
	switch v := inst.(type) {
	case *View:
		return v, true
	case *Text:
		return v, true
	case *Button:
		return v, true
	case *RawText:
		return nil, false
	}
	panic(fmt.Sprintf("host: unknown instance type %T", inst))
}

// Scalar is a string or a number
type Scalar struct {
	str   string
	num   float64
	isNum bool
}

// String returns a string scalar
func String(s string) Scalar { return Scalar{str: s} }

// Number returns a numeric scalar
func Number(n float64) Scalar { return Scalar{num: n, isNum: true} }

// ScalarOf converts strings and finite Go numbers. Anything else is not a
// scalar, which is how tree-shaped children are told apart from bare text.
// NaN and infinities are not scalars; the engine renders them as raw text.
func ScalarOf(v any) (Scalar, bool) {
	switch x := v.(type) {
	case Scalar:
		if !x.isNum || finite(x.num) {
			return x, true
		}
	case string:
		return String(x), true
	case int:
		return Number(float64(x)), true
	case int8:
		return Number(float64(x)), true
	case int16:
		return Number(float64(x)), true
	case int32:
		return Number(float64(x)), true
	case int64:
		return Number(float64(x)), true
	case uint:
		return Number(float64(x)), true
	case uint8:
		return Number(float64(x)), true
	case uint16:
		return Number(float64(x)), true
	case uint32:
		return Number(float64(x)), true
	case uint64:
		return Number(float64(x)), true
	case float32:
		if finite(float64(x)) {
			return Number(float64(x)), true
		}
	case float64:
		if finite(x) {
			return Number(x), true
		}
	}
	return Scalar{}, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsNumber reports whether the scalar holds a number
func (s Scalar) IsNumber() bool { return s.isNum }

// Float returns the numeric value; zero for strings
func (s Scalar) Float() float64 { return s.num }

// String renders the scalar the way a text node would display it
func (s Scalar) String() string {
	if s.isNum {
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	}
	return s.str
}

// MarshalJSON encodes strings as JSON strings and numbers as JSON numbers
func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.isNum {
		if !finite(s.num) {
			return nil, fmt.Errorf("scalar %v is not a finite number", s.num)
		}
		return []byte(strconv.FormatFloat(s.num, 'f', -1, 64)), nil
	}
	return sonic.Marshal(s.str)
}

// UnmarshalJSON accepts a JSON string or number
func (s *Scalar) UnmarshalJSON(data []byte) error {
	var v any
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*s = String(x)
	case float64:
		*s = Number(x)
	default:
		return fmt.Errorf("scalar must be a string or number, got %s", string(data))
	}
	return nil
}
