package signing

import "context"

// Transport is the host link as seen by the flow.
//
// GetQuery blocks until the next host request arrives. It must observe ctx
// and return an error wrapping context.Canceled on a user abort or
// context.DeadlineExceeded when the host went quiet for too long. A request
// whose tag differs from expected is returned as ErrUnexpectedQuery.
type Transport interface {
	GetQuery(ctx context.Context, expected QueryTag) (*Query, error)
	SendResult(ctx context.Context, r *Result) error
	SendError(kind ErrorKind, code Code) error
}

// UI asks the user to approve the flow.
//
// Both methods return false when the user declines and an error only when
// the wait itself was interrupted.
type UI interface {
	Confirm(ctx context.Context, message string) (bool, error)
	ScrollPage(ctx context.Context, title, body string) (bool, error)
}

// SeedSource reconstructs the master seed of a wallet. The returned slice is
// owned by the caller, which zeroes it after use.
type SeedSource interface {
	ReconstructSeed(ctx context.Context, walletID [32]byte) ([]byte, error)
}

// WalletDirectory resolves wallet identifiers to display names.
type WalletDirectory interface {
	WalletName(walletID [32]byte) (string, error)
}
