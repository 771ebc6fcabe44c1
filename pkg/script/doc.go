/*
Package script evaluates server-supplied source against a document element.

# Overview

The live protocol's script operation carries a function body that runs
with the target element in scope:

	["script", "counter", "return Number(this.dataset.count) + 1", {"reply": 1}]

The body is wrapped as a function and called with this bound to the
element. The element is also available as element. The function's return
value is exported to Go and sent back as the reply value.

# Element API

Scripts see a small projection of the element:

  - id, tagName (read-only)
  - textContent, innerHTML (read-write, changes are observed by the document)
  - dataset (a snapshot object)
  - getAttribute(name), setAttribute(name, value), removeAttribute(name)

console.log and console.error write to the evaluator's logger.

# Security Model

The server is trusted. Scripts are not sandboxed beyond running in a fresh
goja runtime per call with an execution timeout; they can read and modify
the element they are given. Do not connect a client to a server you do not
control.
*/
package script
