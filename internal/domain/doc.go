// Package domain contains the core business entities of the publish
// gateway: queued publish tasks and the status callbacks that report
// their lifecycle. It is independent of any specific infrastructure
// or delivery mechanism.
package domain
