/*
Package ports defines the driven ports (interfaces) for the survey engine.

These interfaces decouple the navigation core from external implementations, allowing
sessions to live in various storage backends and graphs to come from various sources.

# Key Interfaces

  - GraphLoader: Builds a domain.Graph (from a file, memory or the Go DSL).
  - StateStore: Persists and loads session snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Navigator: The stateless core that request-scoped adapters drive.
*/
package ports
