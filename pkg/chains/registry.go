// Package chains holds the set of chain variants a device supports.
package chains

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/suffix-labs/signcore/pkg/btc"
	"github.com/suffix-labs/signcore/pkg/config"
	"github.com/suffix-labs/signcore/pkg/evm"
	"github.com/suffix-labs/signcore/pkg/icp"
	"github.com/suffix-labs/signcore/pkg/signing"
	"github.com/suffix-labs/signcore/pkg/xrp"
)

// ErrUnsupportedChain is returned by Lookup for an unregistered chain.
var ErrUnsupportedChain = errors.New("chains: unsupported chain")

// Registry implements signing.ChainLookup.
type Registry struct {
	mu     sync.RWMutex
	chains map[signing.ChainID]signing.Chain
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[signing.ChainID]signing.Chain)}
}

// FromConfig registers every built-in chain with the policy in cfg.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()
	for _, coin := range btc.Coins() {
		r.Register(btc.NewChain(coin, cfg.BTCChain()))
	}
	r.Register(xrp.NewChain())
	r.Register(icp.NewChain())
	r.Register(evm.NewChain(cfg.EVMChain()))
	return r
}

// Register adds c, replacing any chain with the same id.
func (r *Registry) Register(c signing.Chain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[c.ID()] = c
}

// Lookup returns the chain registered under id.
func (r *Registry) Lookup(id signing.ChainID) (signing.Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chains[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, id)
	}
	return c, nil
}

// IDs lists the registered chains in ascending order.
func (r *Registry) IDs() []signing.ChainID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]signing.ChainID, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
