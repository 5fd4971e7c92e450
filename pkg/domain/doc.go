/*
Package domain contains the core domain models for the relay.

It defines the fundamental entities of command dispatch, such as Commands,
Results, and Verdicts. This package is kept pure and free of external
dependencies like I/O or transports, following Hexagonal Architecture
principles.

# Key Entities

  - Command: A single invocation — argv, transport kind, mode, deadline.
  - Result: The immutable outcome — raw bytes, decoded text, completion flag.
  - Verdict: The operator's decision for confirm-mode commands.
*/
package domain
