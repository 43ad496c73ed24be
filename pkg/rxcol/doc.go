// Package rxcol provides reactive collections: mutable lists and maps that
// emit typed change events on every structural mutation while remaining
// usable as ordinary containers.
//
// # Features
//
//   - Generic List and Map decorators over plain Go slices/maps
//   - Three independent event streams per collection: Additions, Deletions, Modifications
//   - Exactly one event per effective mutation, emitted synchronously after the
//     state change, carrying a post-mutation snapshot
//   - Read-only observer views for handing to diagnostics collaborators
//   - Concurrency-safe: reads use an RWMutex, mutations are totally ordered
//
// # Basic Usage
//
//	list := rxcol.NewList[string]()
//
//	sub := list.Additions().Subscribe(func(e rxcol.ListEvent[string]) {
//	    fmt.Printf("added %v at %d, size now %d\n", e.Items, e.Position, len(e.Source))
//	})
//	defer sub.Unsubscribe()
//
//	list.Add("hello") // emits one ADDITION event
//
// # Event Semantics
//
// Events are emitted synchronously on the mutating goroutine, after the
// underlying state change has been applied, so that Source always reflects
// the post-mutation state. No-op mutations (removing an absent element,
// clearing an empty collection) emit nothing. Operations that fail (index out
// of range) return an error and emit nothing.
//
// Handlers must not mutate the source collection re-entrantly; use the
// event's Source snapshot instead of re-reading the collection when a
// consistent view is needed.
package rxcol
