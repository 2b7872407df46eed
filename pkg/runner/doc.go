/*
Package runner implements the interactive loop of SilverShell.

It reads operator lines, routes them to the safety gate and executor (for
"!"-prefixed commands) or to the assistant (for everything else), prints
results through a shared Sink and hands command output to the background
dispatcher for analysis.

# Key Components

  - Runner: The read, route, print loop. Step processes one line; Run loops until
    the operator exits, input ends or the context is cancelled.
  - Sink: The single serialised writer shared by the loop and background analyses.
  - LineReader: Decouples how lines are read (plain text or readline).
  - Recorder: Appends loop and analysis outcomes to a ports.Journal.

# Usage

	sink := runner.NewSink(os.Stdout)
	reader := runner.NewTextReader(os.Stdin, sink)
	r := runner.NewRunner(reader, sink,
		runner.WithAssistant(client),
		runner.WithAnalyzer(dispatch.New(client, sink)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
