// Package template defines the renderer-agnostic template contract used by
// template-backed view engines. Adapters live in subpackages.
package template
