// Package transport provides an in-memory host link for the signing flow.
//
// Pipe is the device end: it implements signing.Transport on top of
// channels, enforces the inactivity timeout on every wait for a host request
// and turns an explicit abort into a P0 cancellation. Host drives a complete
// flow from the other end, which is how the CLI and the tests exercise the
// device without real hardware.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suffix-labs/signcore/pkg/signing"
)

// replyBuffer bounds the number of undelivered device replies.
const replyBuffer = 16

var (
	// ErrReplyDropped is returned by SendError when the host stopped reading.
	ErrReplyDropped = errors.New("transport: reply dropped")

	// ErrUserAbort is the cancellation cause of Abort.
	ErrUserAbort = errors.New("transport: aborted by user")
)

// ErrorReport is the (kind, code) pair a device sends when a flow fails.
type ErrorReport struct {
	Kind signing.ErrorKind
	Code signing.Code
}

func (e *ErrorReport) Error() string {
	return fmt.Sprintf("device error %s/%s", e.Kind, e.Code)
}

// Reply carries either a result or an error report.
type Reply struct {
	Result *signing.Result
	Error  *ErrorReport
}

// Pipe connects one host to one device.
type Pipe struct {
	queries    chan *signing.Query
	replies    chan Reply
	inactivity time.Duration

	// aborted is cancelled with ErrUserAbort by Abort.
	aborted context.Context
	abort   context.CancelCauseFunc
}

// NewPipe creates a pipe. A zero inactivity disables the timeout.
func NewPipe(inactivity time.Duration) *Pipe {
	aborted, abort := context.WithCancelCause(context.Background())
	return &Pipe{
		queries:    make(chan *signing.Query),
		replies:    make(chan Reply, replyBuffer),
		inactivity: inactivity,
		aborted:    aborted,
		abort:      abort,
	}
}

// Abort raises a P0 user abort. Every context returned by Bind is cancelled
// and the pending or next GetQuery fails with an error wrapping
// context.Canceled.
func (p *Pipe) Abort() {
	p.abort(ErrUserAbort)
}

// Bind derives the context a flow on this pipe must run under. It is
// cancelled when parent is done or when Abort is called, so the UI waits and
// the signer observe the abort too, not only GetQuery.
func (p *Pipe) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	stop := context.AfterFunc(p.aborted, func() { cancel(ErrUserAbort) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

func (p *Pipe) abortErr() error {
	if p.aborted.Err() == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", context.Canceled, ErrUserAbort)
}

// GetQuery implements signing.Transport.
func (p *Pipe) GetQuery(ctx context.Context, expected signing.QueryTag) (*signing.Query, error) {
	var timeout <-chan time.Time
	if p.inactivity > 0 {
		timer := time.NewTimer(p.inactivity)
		defer timer.Stop()
		timeout = timer.C
	}

	// an abort already raised wins over a query that is also ready
	if err := p.abortErr(); err != nil {
		return nil, err
	}

	select {
	case q := <-p.queries:
		if err := p.abortErr(); err != nil {
			return nil, err
		}
		if q == nil || q.Tag != expected {
			got := "nil"
			if q != nil {
				got = q.Tag.String()
			}
			return nil, fmt.Errorf("%w: got %s, want %s", signing.ErrUnexpectedQuery, got, expected)
		}
		return q, nil
	case <-p.aborted.Done():
		return nil, p.abortErr()
	case <-timeout:
		return nil, fmt.Errorf("%w: no host request within %s", context.DeadlineExceeded, p.inactivity)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendResult implements signing.Transport.
func (p *Pipe) SendResult(ctx context.Context, r *signing.Result) error {
	select {
	case p.replies <- Reply{Result: r}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendError implements signing.Transport. It never blocks.
func (p *Pipe) SendError(kind signing.ErrorKind, code signing.Code) error {
	select {
	case p.replies <- Reply{Error: &ErrorReport{Kind: kind, Code: code}}:
		return nil
	default:
		return ErrReplyDropped
	}
}

// Send delivers a host request to the device. A device that gave up on the
// flow stops reading; its error report is returned instead.
func (p *Pipe) Send(ctx context.Context, q *signing.Query) error {
	select {
	case p.queries <- q:
		return nil
	case r := <-p.replies:
		if r.Error != nil {
			return r.Error
		}
		return fmt.Errorf("transport: unsolicited %s reply", r.Result.Tag)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the next device reply. An error report is returned as
// an *ErrorReport error.
func (p *Pipe) Receive(ctx context.Context) (*signing.Result, error) {
	select {
	case r := <-p.replies:
		if r.Error != nil {
			return nil, r.Error
		}
		return r.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
