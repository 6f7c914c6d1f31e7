// Package subscription holds the per-chat watch configuration, the
// notification-history dedup rule, and the keyed store backends.
//
// The store contract is deliberately coarse: the whole mapping is loaded and
// saved as one document. Callers read-modify-write a full snapshot; the last
// writer wins (writes are infrequent and the watcher re-merges its slice of
// the state right before saving).
package subscription
