// Package openapi derives parameter declarations from OpenAPI 3 documents so
// handlers can bind request values without declaring them by hand.
//
// Parameters marked with the x-binding-result extension (on the parameter,
// the schema property, or the whole operation) are opt-in: their failures
// are recorded into the request binding.Result.
package openapi
