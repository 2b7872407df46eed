/*
Package ports defines the driven ports (interfaces) of SilverShell.

These interfaces decouple the interactive loop from the storage backends that
record what happened during a session.

# Key Interfaces

  - Journal: Appends and lists session entries (commands, blocked commands,
    chat turns and background analyses). Implemented in memory, as JSONL
    files and on Redis.
*/
package ports
