/*
Package domain contains the core value types shared by every SilverShell component.

It is kept free of I/O, persistence and terminal concerns so the safety gate,
executor, detector and dispatcher can be tested as plain functions over these values.

# Key Entities

  - Command: the raw string the operator asked to run.
  - ExecutionResult: the single, immutable outcome of running a Command.
  - SuggestionList: ordered recon templates derived from command output.
  - AnalysisTask: one fire-and-forget request for background commentary.
  - Verdict: the safety gate decision for a Command.
  - Entry: a journal record of what happened in a session.
*/
package domain
