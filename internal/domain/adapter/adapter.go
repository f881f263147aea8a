package adapter

import (
	"fmt"

	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
)

// ContractViolation is the panic value raised when the engine asks for an
// operation that does not fit the instance it targets. It means the engine
// and the adapter disagree and is never recovered.
type ContractViolation struct {
	Op     string
	Detail string
}

func (v *ContractViolation) Error() string {
	return fmt.Sprintf("host adapter contract violation in %s: %s", v.Op, v.Detail)
}

func violate(op string, want host.Tag, got host.Instance) {
	panic(&ContractViolation{Op: op, Detail: fmt.Sprintf("expected %s instance, got %T", want, got)})
}

// UpdatePayload is what PrepareUpdate hands to CommitUpdate
type UpdatePayload struct {
	Old reconcile.Props
	New reconcile.Props
}

// Adapter implements the engine callbacks against the host tree
type Adapter struct{}

var _ reconcile.HostConfig[*host.Container, host.Instance, *host.Context] = Adapter{}

// NewEngine binds a fresh engine to container
func NewEngine(container *host.Container, sched reconcile.Scheduler) *reconcile.Engine[*host.Container, host.Instance, *host.Context] {
	return reconcile.New[*host.Container, host.Instance, *host.Context](Adapter{}, container, sched)
}

func (Adapter) GetRootHostContext(c *host.Container) *host.Context {
	return c.Host
}

func (Adapter) GetChildHostContext(parent *host.Context, _ string, _ *host.Container) *host.Context {
	return parent
}

// ShouldSetTextContent is true exactly for text elements whose declared
// children are a bare scalar.
func (Adapter) ShouldSetTextContent(kind string, props reconcile.Props) bool {
	if kind != KindText {
		return false
	}
	_, ok := scalarChildren(props[reconcile.ChildrenKey])
	return ok
}

func (Adapter) CreateInstance(kind string, props reconcile.Props, _ *host.Container, hostCtx *host.Context) host.Instance {
	switch kind {
	case KindView:
		return &host.View{Border: viewProps(props).Border}
	case KindBtn:
		return &host.Button{
			ID:      hostCtx.GenerateID(),
			OnClick: buttonProps(props).OnClick,
		}
	case KindText:
		p := textProps(props)
		text, _ := scalarChildren(p.Children)
		return &host.Text{Color: p.Color, Type: p.Type, Text: text}
	}
	panic(&ContractViolation{Op: "createInstance", Detail: fmt.Sprintf("unknown element kind %q", kind)})
}

func (Adapter) CreateTextInstance(text string, _ *host.Container, _ *host.Context) host.Instance {
	return &host.RawText{Text: host.String(text)}
}

func (a Adapter) AppendInitialChild(parent, child host.Instance) {
	a.AppendChild(parent, child)
}

func (Adapter) FinalizeInitialChildren(host.Instance, string, reconcile.Props, *host.Container, *host.Context) bool {
	return false
}

func (Adapter) CommitMount(host.Instance, string, reconcile.Props) {}

// GetPublicInstance exposes the instance itself to refs
func (Adapter) GetPublicInstance(inst host.Instance) host.Instance {
	return inst
}

// PrepareUpdate always reports a change so every touched node is rewritten
// during commit.
func (Adapter) PrepareUpdate(_ host.Instance, _ string, oldProps, newProps reconcile.Props, _ *host.Container, _ *host.Context) any {
	return &UpdatePayload{Old: oldProps, New: newProps}
}

func (Adapter) CommitUpdate(inst host.Instance, _ any, kind string, _, newProps reconcile.Props) {
	switch kind {
	case KindBtn:
		b, ok := inst.(*host.Button)
		if !ok {
			violate("commitUpdate", host.TagBtn, inst)
		}
		b.OnClick = buttonProps(newProps).OnClick
	case KindView:
		v, ok := inst.(*host.View)
		if !ok {
			violate("commitUpdate", host.TagView, inst)
		}
		v.Border = viewProps(newProps).Border
	case KindText:
		t, ok := inst.(*host.Text)
		if !ok {
			violate("commitUpdate", host.TagText, inst)
		}
		p := textProps(newProps)
		t.Text, _ = scalarChildren(p.Children)
		t.Color = p.Color
		t.Type = p.Type
	default:
		panic(&ContractViolation{Op: "commitUpdate", Detail: fmt.Sprintf("unknown element kind %q", kind)})
	}
}

func (Adapter) CommitTextUpdate(inst host.Instance, _, newText string) {
	r, ok := inst.(*host.RawText)
	if !ok {
		violate("commitTextUpdate", host.TagRaw, inst)
	}
	r.Text = host.String(newText)
}

func (Adapter) AppendChild(parent, child host.Instance) {
	p, ok := host.AsParent(parent)
	if !ok {
		panic(&ContractViolation{Op: "appendChild", Detail: "raw text cannot hold children"})
	}
	p.SetKids(append(p.Kids(), child))
}

func (Adapter) AppendChildToContainer(c *host.Container, child host.Instance) {
	c.Append(child)
}

func (Adapter) RemoveChild(parent, child host.Instance) {
	p, ok := host.AsParent(parent)
	if !ok {
		panic(&ContractViolation{Op: "removeChild", Detail: "raw text cannot hold children"})
	}
	p.SetKids(host.Without(p.Kids(), child))
}

func (Adapter) RemoveChildFromContainer(c *host.Container, child host.Instance) {
	c.Remove(child)
}

func (Adapter) PrepareForCommit(*host.Container) {}

func (Adapter) ResetAfterCommit(c *host.Container) {
	c.Host.OnCommit(c)
}
