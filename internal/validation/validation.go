// Package validation binds request bodies and turns validator failures
// into field-level errors.
package validation
