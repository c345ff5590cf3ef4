// Package binding converts raw request parameters into typed values and
// validates them.
//
// Every parameter is either opt-in or opt-out. Failures on opt-in parameters
// are recorded into the request's Result and the handler still runs; failures
// on opt-out parameters are returned as *ConversionError or
// *ConstraintViolation and left to the surrounding error mappers.
package binding
