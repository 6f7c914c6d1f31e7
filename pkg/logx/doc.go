// Package logx wraps zerolog behind a small structured-logging API.
//
// The Logger value type is safe to copy and its zero value is a no-op,
// so components can embed one without nil checks. Service owns the sinks
// (console/file) and supports swapping them at runtime via Apply.
package logx
