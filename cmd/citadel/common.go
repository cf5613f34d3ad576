package main

import (
	"context"
	"errors"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v3"

	"github.com/janipasanen/Citadel/pkg/sshclient"
)

// sshFlags are the connection flags shared by every execution subcommand.
func sshFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "host",
			Usage:    "remote host, e.g. 192.168.127.2",
			Required: true,
		},
		&cli.Uint16Flag{
			Name:  "port",
			Usage: "SSH port",
			Value: 22,
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "SSH user",
			Value: "root",
		},
		&cli.StringFlag{
			Name:     "key",
			Usage:    "path to the private key file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "gvproxy-socket",
			Usage: "tunnel the connection through a gvproxy unix socket",
		},
		&cli.DurationFlag{
			Name:  "dial-timeout",
			Usage: "connection timeout",
			Value: sshclient.DefaultDialTimeout,
		},
	}
}

func newClient(ctx context.Context, command *cli.Command) (*sshclient.Client, error) {
	cfg := sshclient.NewConfig(
		command.String("host"),
		command.Uint16("port"),
		command.String("user"),
		command.String("key"),
	).WithDialTimeout(command.Duration("dial-timeout"))

	if socket := command.String("gvproxy-socket"); socket != "" {
		cfg.WithGVProxySocket(socket)
	}

	return sshclient.NewClient(ctx, cfg)
}

// remoteCommand joins the positional arguments into a single shell-safe
// command string.
func remoteCommand(command *cli.Command) (string, error) {
	args := command.Args().Slice()
	if len(args) == 0 {
		return "", errors.New("no command given")
	}
	return shellescape.QuoteCommand(args), nil
}

const channelTimeoutUsage = "how long to wait for the session channel to open"
