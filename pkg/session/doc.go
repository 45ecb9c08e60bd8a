/*
Package session implements session management and persistence orchestration.

A Manager turns the stateless survey core into request-scoped operations: every call
loads a snapshot from a ports.StateStore, validates it against the graph, applies one
domain.Command and saves the result. Access to a session is serialized by a local
ref-counted mutex and, when configured, by a ports.DistributedLocker so that several
replicas can share one store.
*/
package session
