// Package server provides HTTP routing, middleware and server lifecycle for the bookmarking API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Chain] applies middleware to a single route, which is how authentication is scoped to the saved-content routes.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/courses") internally,
// so the matched pattern is available to middleware as [http.Request.Pattern].
//
// # Middleware
//
//   - [Logging] : one structured log line per request
//   - [Recover] : converts panics into 500 responses
//   - [CORS] : cross-origin headers from configured origins
//   - [Metrics.Middleware] : Prometheus request counters and latency histograms
//   - [RateLimit] : per-client token buckets, used on login and register
//   - [Authenticate] : resolves the request token into an [auth.Principal]
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
