// Package version exposes the build version reported by the health
// endpoint and sent as the outbound client identifier.
package version

// Version is the semantic version of the gateway.
const Version = "1.2.0"

// UserAgent identifies the gateway in outbound HTTP requests.
const UserAgent = "draftwire-gateway/" + Version
