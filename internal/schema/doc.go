// Package schema defines the canonical Field-Kit data objects: the immutable
// QDPI event record, the four mutable snapshot entities (Network, Episode,
// Item, Bond), the closed provenance sum type, and prefixed id generation.
//
// Every persisted record carries a SchemaVersion field so future fields can
// be added without breaking old readers. The event name enumeration is
// closed and versioned: names outside CanonicalEventNames are rejected
// before a sequence number is ever allocated.
package schema
