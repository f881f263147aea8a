// Package snapshot turns the live host tree into an immutable value tree
// that can cross the context boundary.
//
// Buttons keep only their identifier; handlers never leave the background
// context. A node with zero children has a nil Children slice and the
// "children" field is omitted on the wire. Every commit produces a fresh
// Payload covering the whole tree.
//
// Wire shapes:
//
//	{"tag":"view","border":1,"children":[...]}
//	{"tag":"text","type":"header","text":"hi","children":[...]}
//	{"tag":"btn","id":0,"children":[...]}
//	{"tag":"raw","text":"count: "}
package snapshot
