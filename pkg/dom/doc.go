// Package dom provides the headless document a live client drives.
//
// A Document wraps an x/net/html tree and adds the parts of a browser
// document the client depends on: selector queries, mutation records,
// event listeners with bubbling, page visibility and ready state.
//
// # Mutations
//
// Every change made through Document methods is reported to observers as a
// MutationRecord. Records are delivered synchronously after the outermost
// mutation returns, or once at the end of a Batch:
//
//	stop := doc.Observe(func(records []dom.MutationRecord) {
//	    for _, r := range records { ... }
//	})
//	defer stop()
//
//	doc.Batch(func() {
//	    doc.Append(list, item)
//	    doc.Remove(old)
//	})
//
// Nodes changed directly through the *html.Node fields are not observed.
//
// # Morphing
//
// Morpher transforms an existing subtree into new markup while keeping
// nodes that match, so bound elements survive an update. DefaultMorpher
// matches children by id first and by position otherwise.
//
// # Concurrency
//
// A Document is not safe for concurrent use. The live client owns its
// document on the session goroutine; host code reaches it through
// client.Session.Do.
package dom
