package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/janipasanen/Citadel/pkg/keygen"
)

var keygenCmd = cli.Command{
	Name:      "keygen",
	Usage:     "generate an ed25519 key pair for client authentication",
	UsageText: "keygen --output /path/to/key",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "output",
			Usage:    "where to write the private key; the public key gets a .pub suffix",
			Required: true,
		},
	},
	Action: runKeygen,
}

func runKeygen(ctx context.Context, command *cli.Command) error {
	privatePath, publicPath, err := keygen.WriteKeyPair(command.String("output"))
	if err != nil {
		return err
	}

	logrus.Infof("private key: %s", privatePath)
	logrus.Infof("public key: %s", publicPath)
	return nil
}
