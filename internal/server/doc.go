// Package server provides the HTTP dispatch surface for the recommendation engine.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added wraps first), so the first added is outermost and executes first, following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handlers
//
// Handlers translate recommendation, capture, and dismissal requests into calls against the
// query, ingest, and dismissal services, and map their errors onto HTTP status codes through
// [statusFor].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
