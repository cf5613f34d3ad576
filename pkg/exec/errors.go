package exec

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelCreationTimeout is returned when the transport did not open
	// a channel within the configured window. No request is ever sent on a
	// channel that did not open in time.
	ErrChannelCreationTimeout = errors.New("channel creation timed out")
	// ErrChannelCreationFailed is returned when the transport rejected or
	// failed the channel open.
	ErrChannelCreationFailed = errors.New("failed to open channel")
	// ErrChannelRequestFailed is returned when the remote side refused the
	// exec or shell request.
	ErrChannelRequestFailed = errors.New("channel request failed")
	// ErrOutputTooLarge is returned when a buffered execution exceeds its
	// configured response size limit on stdout or stderr.
	ErrOutputTooLarge = errors.New("command output exceeds response size limit")
	// ErrInvalidChannelData is returned when a non-data frame arrived where
	// command output was expected.
	ErrInvalidChannelData = errors.New("invalid channel data")
)

// ExitError reports a remote command that terminated unsuccessfully, either
// with a nonzero exit status or by a signal.
type ExitError struct {
	Status int
	Signal string
}

func (e *ExitError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("command terminated by signal %s", e.Signal)
	}
	return fmt.Sprintf("command exited with status %d", e.Status)
}
