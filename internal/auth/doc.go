// Package auth implements request admission security for the publish
// gateway: Basic-Auth credential verification against an identity
// provider, HMAC body signature checks with a self-initializing
// encrypted-at-rest secret, and bearer-token validation for the
// administrative surface.
package auth
