// Package store defines the persistence layer of the publish gateway.
// Tasks and callbacks only need keyed get/set-with-expiry/delete
// semantics, so the package exposes a small KeyValue interface and
// typed stores on top of it, keeping business logic independent of
// the backing technology.
package store
