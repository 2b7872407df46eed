/*
Package silvershell is an interactive reconnaissance assistant for the terminal.

An operator types either a shell command prefixed with "!" or a free-form question. Commands pass through a safety gate, run to completion, and have their output scanned for known services so that follow-up commands can be suggested. The output is then handed to a language model for analysis in the background, while the operator keeps working. Questions go to the same model synchronously.

# Architecture

The loop itself lives in pkg/runner. It depends only on small interfaces, so every collaborator can be replaced:

  - pkg/safety: the denylist gate with operator confirmation.
  - pkg/adapters/process: bounded command execution with merged output.
  - pkg/recon: pattern rules mapping output to suggested commands.
  - pkg/assistant: the Gemini client and prompt composition.
  - pkg/dispatch: non-blocking, bounded background analysis.
  - pkg/ports: the session journal, with memory, file and Redis adapters.

The same gate and rules are exposed to other programs over HTTP (pkg/adapters/http) and the Model Context Protocol (pkg/adapters/mcp).

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/silvershell/pkg/assistant"
		"github.com/aretw0/silvershell/pkg/runner"
	)

	func main() {
		client, err := assistant.NewGeminiClient(assistant.GeminiConfig{APIKey: os.Getenv("GEMINI_API_KEY")})
		if err != nil {
			log.Fatal(err)
		}

		sink := runner.NewSink(os.Stdout)
		reader := runner.NewTextReader(os.Stdin, sink)
		r := runner.NewRunner(reader, sink, runner.WithAssistant(client))
		if err := r.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
	}

Most users run the bundled CLI instead:

	silvershell run --config config.json
*/
package silvershell
