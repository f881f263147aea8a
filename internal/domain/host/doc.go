// Package host defines the live host tree owned by the background context.
//
// The tree is a closed sum type of four variants:
//   - View: container with optional border
//   - Text: styled text, either with an in-place scalar payload or children
//   - Button: interactive node with a root-unique integer ID and a handler
//   - RawText: scalar leaf
//
// A Container holds the per-root Context (ID generator and commit callback)
// and the top-level instances. Children order is render order.
//
// FindButton and Container.Dispatch resolve a foreground click back to the
// handler that owns it. IDs are the only handle the foreground has.
package host
