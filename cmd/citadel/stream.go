package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/janipasanen/Citadel/pkg/exec"
)

var streamCmd = cli.Command{
	Name:        "stream",
	Usage:       "run a command and stream its output as it arrives",
	UsageText:   "stream [flags] -- command [args...]",
	Description: "executes the command and forwards stdout/stderr chunks live; with --shell the command runs inside an interactive shell",
	Flags: append(sshFlags(),
		&cli.BoolFlag{
			Name:  "shell",
			Usage: "run the command through a remote shell instead of an exec request",
		},
		&cli.DurationFlag{
			Name:  "channel-timeout",
			Usage: channelTimeoutUsage,
			Value: exec.DefaultChannelTimeout,
		},
	),
	Action: runStream,
}

func runStream(ctx context.Context, command *cli.Command) error {
	remote, err := remoteCommand(command)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, command)
	if err != nil {
		return err
	}
	defer client.Close()

	executor := exec.NewExecutor(client)
	opts := []exec.RunOption{
		exec.WithChannelTimeout(command.Duration("channel-timeout")),
	}

	var stream *exec.Stream
	if command.Bool("shell") {
		stream, err = executor.StreamShell(ctx, remote, opts...)
	} else {
		stream, err = executor.Stream(ctx, remote, opts...)
	}
	if err != nil {
		return err
	}
	defer stream.Close()

	for ev := range stream.Events() {
		switch ev.Kind {
		case exec.EventStdout:
			os.Stdout.Write(ev.Data)
		case exec.EventStderr:
			os.Stderr.Write(ev.Data)
		}
	}
	return stream.Err()
}

var splitCmd = cli.Command{
	Name:        "split",
	Usage:       "run a command with independent stdout and stderr streams",
	UsageText:   "split [flags] -- command [args...]",
	Description: "executes the command and consumes stdout and stderr as two independent live sequences",
	Flags: append(sshFlags(),
		&cli.BoolFlag{
			Name:  "shell",
			Usage: "run the command through a remote shell instead of an exec request",
		},
		&cli.DurationFlag{
			Name:  "channel-timeout",
			Usage: channelTimeoutUsage,
			Value: exec.DefaultChannelTimeout,
		},
	),
	Action: runSplit,
}

func runSplit(ctx context.Context, command *cli.Command) error {
	remote, err := remoteCommand(command)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, command)
	if err != nil {
		return err
	}
	defer client.Close()

	opts := []exec.RunOption{
		exec.WithChannelTimeout(command.Duration("channel-timeout")),
	}
	if command.Bool("shell") {
		opts = append(opts, exec.WithShell())
	}

	pair, err := exec.NewExecutor(client).Split(ctx, remote, opts...)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error {
		for chunk := range pair.Stdout().Chunks() {
			os.Stdout.Write(chunk)
		}
		return pair.Stdout().Err()
	})
	g.Go(func() error {
		for chunk := range pair.Stderr().Chunks() {
			os.Stderr.Write(chunk)
		}
		return pair.Stderr().Err()
	})
	return g.Wait()
}
