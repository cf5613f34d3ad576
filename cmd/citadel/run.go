package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/janipasanen/Citadel/pkg/exec"
)

var runCmd = cli.Command{
	Name:        "run",
	Usage:       "run a command and print its buffered output",
	UsageText:   "run [flags] -- command [args...]",
	Description: "executes the command, buffers stdout and stderr until it exits, then prints both",
	Flags: append(sshFlags(),
		&cli.IntFlag{
			Name:  "max-response-size",
			Usage: "fail if a stream exceeds this many bytes (0 = unbounded)",
		},
		&cli.BoolFlag{
			Name:  "merge",
			Usage: "fold stderr into stdout in arrival order",
		},
		&cli.DurationFlag{
			Name:  "channel-timeout",
			Usage: channelTimeoutUsage,
			Value: exec.DefaultChannelTimeout,
		},
	),
	Action: runBuffered,
}

func runBuffered(ctx context.Context, command *cli.Command) error {
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
	if n := command.Int("max-response-size"); n > 0 {
		opts = append(opts, exec.WithMaxResponseSize(n))
	}
	if command.Bool("merge") {
		opts = append(opts, exec.WithMergeStreams())
	}

	res, err := exec.NewExecutor(client).Run(ctx, remote, opts...)
	if err != nil {
		return err
	}

	os.Stdout.Write(res.Stdout)
	os.Stderr.Write(res.Stderr)
	return nil
}
