package signing

import (
	"github.com/suffix-labs/signcore/pkg/crypto"
)

// FlowContext owns everything one signing flow allocates: the initiate
// request, the assembled transaction, its decoded form and every secret
// derived while signing.
//
// It is created by Flow.Run and released with Close on every exit path.
type FlowContext struct {
	ID    string
	Init  *InitiateRequest
	Chain Chain
	Txn   Transaction

	collector  *Collector
	seed       []byte
	keys       []*crypto.PrivateKey
	signatures [][]byte
	closed     bool
}

func newFlowContext(id string) *FlowContext {
	return &FlowContext{ID: id}
}

// Raw returns the assembled unsigned transaction, or nil before Collect.
func (fc *FlowContext) Raw() []byte {
	if fc.collector == nil {
		return nil
	}
	return fc.collector.Bytes()
}

// Signatures returns the signatures produced so far.
func (fc *FlowContext) Signatures() [][]byte { return fc.signatures }

// wipeSeed zeroes the seed as soon as every key was derived.
func (fc *FlowContext) wipeSeed() {
	crypto.Zero(fc.seed)
	fc.seed = nil
}

// wipeKeys zeroes every derived private key.
func (fc *FlowContext) wipeKeys() {
	for _, k := range fc.keys {
		k.Zero()
	}
	fc.keys = nil
}

// Close releases the flow resources and zeroes all secret-bearing memory.
// It can be called any number of times.
func (fc *FlowContext) Close() {
	if fc == nil || fc.closed {
		return
	}
	fc.wipeSeed()
	fc.wipeKeys()
	for _, sig := range fc.signatures {
		crypto.Zero(sig)
	}
	fc.signatures = nil
	if fc.collector != nil {
		fc.collector.Wipe()
		fc.collector = nil
	}
	fc.Txn = nil
	fc.Init = nil
	fc.closed = true
}
