// Package theglocal is the Theglocal hyper-local community API.
//
// The server lives in cmd/server and operator tooling in cmd/admin. The
// implementation is organized into subpackages:
//
//   - internal/handlers: HTTP handlers and route registration
//   - internal/auth: email/password and Google sign-in, JWT sessions
//   - internal/permissions: community roles and the last-admin rule
//   - internal/notifications: inboxes, cursor pagination, batching, expiry sweeps
//   - internal/uploads: chunked upload sessions over the object store
//   - internal/media: type sniffing and thumbnails
//   - internal/ratelimit: fixed-window limits backed by Redis
//   - internal/robots, internal/discovery: robots.txt-aware article fetching
//   - internal/storage: S3 and in-memory object stores
//   - internal/database, internal/repository: GORM setup and data access
//   - internal/telemetry, internal/metrics: tracing and Prometheus metrics
//
// See the individual package documentation for details.
package theglocal
