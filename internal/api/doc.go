// Package api implements the HTTP surface of the publish gateway: the
// authenticated admission endpoint, the health probe, and the
// administrative callback-retry trigger. Handlers validate and
// normalize input, persist state through the stores, and hand all
// asynchronous work to the scheduler; they never block on downstream
// side effects.
package api
