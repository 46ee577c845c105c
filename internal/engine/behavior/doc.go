// Package behavior stores the programmable editing behaviors attached to
// characters.
//
// # Actions and behaviors
//
// An Action bundles up to five handlers, one per edit kind (add, delete,
// style, focus, unfocus). Named actions such as "LOCK" are registered once
// by name; the unnamed default action holds the plain editing handlers.
//
// A Behavior is an ordered stack of action ids. The front of the stack is
// the most recently attached action and is consulted first, so attaching
// LOCK to a range makes its handlers win over whatever was there before.
//
// Both actions and behaviors are interned: equal values share one id and
// ids are never reused. Each character position stores a single behavior
// id, which keeps per-character metadata small no matter how many
// behaviors are stacked.
//
// # Stop bits
//
// A handler whose StopBit is set blocks the handlers below it. Delete and
// style commands use DeletableRanges and StyleableRanges to skip text that
// a stop-bit handler protects.
//
// # Storage
//
// SetStorage attaches an auxiliary object to the next occurrence of a
// named action. Occurrences with different storage are different actions
// (they differ in Generation), and RemoveActionsInRange with Equivalents
// removes all of them.
package behavior
