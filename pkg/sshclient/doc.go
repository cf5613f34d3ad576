/*
Package sshclient implements the exec.Transport contract on top of
golang.org/x/crypto/ssh.

A Client owns one authenticated connection (direct TCP or tunneled through
a gvproxy unix socket) and its keepalive loop. Each OpenChannel call opens
one raw "session" channel and wraps it so that stdout, stderr, the remote
request acknowledgment, exit status, and teardown all arrive through a
single ordered event source:

	cfg := sshclient.NewConfig("192.168.127.2", 22, "root", keyPath).
	    WithGVProxySocket("/tmp/gvproxy.sock")

	client, err := sshclient.NewClient(ctx, cfg)
	if err != nil {
	    return err
	}
	defer client.Close()

	executor := exec.NewExecutor(client)
	res, err := executor.Run(ctx, "uptime")

A nonzero remote exit status terminates the execution with *exec.ExitError
after all output has drained.
*/
package sshclient
