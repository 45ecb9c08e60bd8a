/*
Package domain contains the core models of the survey engine.

It defines the immutable question graph and the serializable session state that
the navigation runtime transforms. This package is kept pure and free of I/O so
that every adapter (memory, file, redis, sqlite, HTTP, MCP) shares the same shapes.

# Key Entities

  - Node: a question with option keys mapped to ordered target ids and a default successor.
  - Graph: the validated node catalogue, entry node and undo depth.
  - Navigation: current node, pending queue, origin map and visited set.
  - Answers: choice and text answers, untouched by back-navigation.
  - State: Navigation + Answers + the bounded history of Navigation snapshots.
  - Snapshot: the versioned transport form of State.
*/
package domain
