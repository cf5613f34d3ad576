/*
Package exec is the remote-command-execution layer: it turns an
already-authenticated, multiplexed connection into reliable
request/response and streaming command-execution primitives.

The package is organized around one event pipeline serving four API
shapes:

  - transport.go: the Transport/Channel boundary the core is written
    against; implemented by pkg/sshclient for real connections and by
    in-memory fakes in tests
  - event.go: the classified output-event vocabulary and the Sink contract
  - router.go: classification of raw channel notifications into events,
    with exactly-once termination
  - collector.go: the buffered sink with size-bounded accumulation
  - stream.go: the live event-stream sink
  - pair.go: the stdout/stderr stream pair built on top of a stream
  - coordinator.go: channel lifecycle and the public entry points

# Execution modes

Buffered execution collects everything and returns once the command has
terminated:

	executor := exec.NewExecutor(client)
	res, err := executor.Run(ctx, "uname -a",
	    exec.WithMaxResponseSize(1<<20),
	)
	if err != nil {
	    return err
	}
	fmt.Print(string(res.Stdout))

Streaming execution delivers output as it arrives:

	stream, err := executor.Stream(ctx, "journalctl -f")
	if err != nil {
	    return err
	}
	defer stream.Close()

	for ev := range stream.Events() {
	    os.Stdout.Write(ev.Data)
	}
	if err := stream.Err(); err != nil {
	    return err
	}

StreamShell runs the command through an interactive shell instead of an
exec request: the shell is started, and on acknowledgment the command plus
";exit" is written to its input. Split returns independent stdout and
stderr sequences built from either mode.

# Guarantees

Within one execution, events reach the sink in the exact order the
transport delivered the underlying frames; no reordering across stdout and
stderr is introduced here. Exactly one terminal signal is delivered per
execution, even when the transport emits duplicate teardown notifications,
and no error is ever reported alongside partial success for the same
stream. A buffered execution whose output would exceed the configured
ceiling fails fast with ErrOutputTooLarge and discards everything that
follows.

Failed executions close their channel; abandoning a stream via Close does
too. Nothing is retried — retry policy belongs to the caller.
*/
package exec
