package transport

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/suffix-labs/signcore/pkg/signing"
)

// Session runs a device flow and a scripted host concurrently on the same
// pipe and waits for both. The flow runs under the pipe's abort context.
func Session(ctx context.Context, flow *signing.Flow, host *Host, script Script) (*signing.Outcome, *Transcript, error) {
	return pair(ctx, host, flow.Run, func(ctx context.Context) (*Transcript, error) {
		return host.Run(ctx, script)
	})
}

// KeySession runs a public key export flow against one host request.
func KeySession(ctx context.Context, flow *signing.Flow, host *Host, req *signing.PublicKeyRequest) (*signing.Outcome, *signing.Result, error) {
	return pair(ctx, host, flow.RunPublicKey, func(ctx context.Context) (*signing.Result, error) {
		return host.RequestPublicKeys(ctx, req)
	})
}

func pair[T any](
	ctx context.Context,
	host *Host,
	device func(context.Context) (*signing.Outcome, error),
	peer func(context.Context) (T, error),
) (*signing.Outcome, T, error) {
	g, gctx := errgroup.WithContext(ctx)
	flowCtx, stop := host.pipe.Bind(gctx)
	defer stop()

	var (
		outcome *signing.Outcome
		reply   T
	)
	g.Go(func() error {
		var err error
		outcome, err = device(flowCtx)
		return err
	})
	g.Go(func() error {
		var err error
		reply, err = peer(gctx)
		return err
	})

	err := g.Wait()
	return outcome, reply, err
}
