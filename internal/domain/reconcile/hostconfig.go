package reconcile

// HostConfig is the fixed callback set a renderer supplies to the engine.
// C is the root container, I the host instance (element or text leaf) and
// X the host context passed down the tree.
//
// The engine never reorders in place: order changes are expressed as
// RemoveChild followed by AppendChild, in the sequence the result should
// reflect.
type HostConfig[C any, I comparable, X any] interface {
	GetRootHostContext(container C) X
	GetChildHostContext(parent X, kind string, container C) X

	// ShouldSetTextContent reports whether the node holds its text directly.
	// When true the engine creates no children for it.
	ShouldSetTextContent(kind string, props Props) bool

	CreateInstance(kind string, props Props, container C, hostCtx X) I
	CreateTextInstance(text string, container C, hostCtx X) I
	AppendInitialChild(parent, child I)
	FinalizeInitialChildren(instance I, kind string, props Props, container C, hostCtx X) bool
	CommitMount(instance I, kind string, props Props)

	// PrepareUpdate returns nil when nothing changed. Any non-nil payload
	// makes the engine call CommitUpdate during commit.
	PrepareUpdate(instance I, kind string, oldProps, newProps Props, container C, hostCtx X) any
	CommitUpdate(instance I, payload any, kind string, oldProps, newProps Props)
	CommitTextUpdate(textInstance I, oldText, newText string)

	AppendChild(parent, child I)
	AppendChildToContainer(container C, child I)
	RemoveChild(parent, child I)
	RemoveChildFromContainer(container C, child I)

	PrepareForCommit(container C)
	ResetAfterCommit(container C)
}

// Scheduler queues work onto the single-threaded loop that owns the tree.
// Post must be safe to call from any goroutine.
type Scheduler interface {
	Post(task func())
}
