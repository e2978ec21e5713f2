package signing

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/bytestream"
	"github.com/suffix-labs/signcore/pkg/crypto"
)

// scriptedTransport replays a fixed list of host requests.
type scriptedTransport struct {
	mu      sync.Mutex
	queries []*Query
	results []*Result
	errs    [][2]uint32

	// onEmpty is returned once the script ran out.
	onEmpty error
}

func (s *scriptedTransport) GetQuery(ctx context.Context, expected QueryTag) (*Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.queries) == 0 {
		if s.onEmpty != nil {
			return nil, s.onEmpty
		}
		return nil, fmt.Errorf("%w: script exhausted", context.DeadlineExceeded)
	}
	q := s.queries[0]
	s.queries = s.queries[1:]
	if q.Tag != expected {
		return nil, errors.Wrapf(ErrUnexpectedQuery, "got %s", q.Tag)
	}
	return q, nil
}

func (s *scriptedTransport) SendResult(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// kept by reference, as a real link buffer would
	s.results = append(s.results, r)
	return nil
}

func (s *scriptedTransport) SendError(kind ErrorKind, code Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, [2]uint32{uint32(kind), uint32(code)})
	return nil
}

func (s *scriptedTransport) signatures() [][]byte {
	var out [][]byte
	for _, r := range s.results {
		if r.Tag == ResultSignature {
			out = append(out, r.Signature)
		}
	}
	return out
}

// stubUI answers every prompt with the same decision and records prompts.
type stubUI struct {
	approve  bool
	rejectAt string
	prompts  []string
	onPrompt func()
}

func (u *stubUI) answer(text string) (bool, error) {
	u.prompts = append(u.prompts, text)
	if u.onPrompt != nil {
		u.onPrompt()
	}
	if u.rejectAt != "" && text == u.rejectAt {
		return false, nil
	}
	return u.approve, nil
}

func (u *stubUI) Confirm(_ context.Context, msg string) (bool, error) { return u.answer(msg) }

func (u *stubUI) ScrollPage(_ context.Context, title, _ string) (bool, error) {
	return u.answer(title)
}

// fixedSeeds hands out copies of one seed and keeps them for inspection.
type fixedSeeds struct {
	seed   []byte
	issued [][]byte
}

func (f *fixedSeeds) ReconstructSeed(ctx context.Context, _ [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cp := append([]byte(nil), f.seed...)
	f.issued = append(f.issued, cp)
	return cp, nil
}

type namedWallets map[[32]byte]string

func (w namedWallets) WalletName(id [32]byte) (string, error) {
	name, ok := w[id]
	if !ok {
		return "", errors.New("no such wallet")
	}
	return name, nil
}

type chainSet map[ChainID]Chain

func (c chainSet) Lookup(id ChainID) (Chain, error) {
	chain, ok := c[id]
	if !ok {
		return nil, errors.Errorf("unsupported chain %s", id)
	}
	return chain, nil
}

// echoChain signs SHA-256 of the raw transaction once per path component
// count, with review items taken from the raw text.
type echoChain struct {
	refs     int
	warnings []string
}

func (echoChain) ID() ChainID  { return ChainXRP }
func (echoChain) Name() string { return "Echo" }

func (echoChain) CheckPath(path []uint32) error {
	if len(path) != 5 {
		return errors.New("want five levels")
	}
	return nil
}

func (c echoChain) Parse(_ *InitiateRequest, raw []byte) (Transaction, error) {
	if len(raw) == 0 || raw[0] != 'T' {
		return nil, errors.New("not an echo transaction")
	}
	txn := &echoTxn{raw: raw, warnings: c.warnings}
	if c.refs > 0 {
		return &echoRefTxn{echoTxn: txn, refs: c.refs}, nil
	}
	return txn, nil
}

type echoTxn struct {
	raw      []byte
	warnings []string
}

func (t *echoTxn) Review() []ReviewItem {
	items := []ReviewItem{{Title: "Payload", Body: string(t.raw)}}
	for _, w := range t.warnings {
		items = append(items, ReviewItem{Title: "Warning", Body: w, Warning: true})
	}
	return items
}

func (t *echoTxn) SigningJobs(init *InitiateRequest) ([]Job, error) {
	digest := func(*crypto.PublicKey) ([]byte, error) {
		sum := sha256.Sum256(t.raw)
		return sum[:], nil
	}
	return []Job{
		{Path: init.Path, Encoding: crypto.EncodingRaw, Digest: digest},
		{Path: init.Path, Encoding: crypto.EncodingDER, Digest: digest},
	}, nil
}

// echoRefTxn expects refs references, each made of a 4-byte length followed
// by that many bytes.
type echoRefTxn struct {
	*echoTxn
	refs int
	seen [][]byte
}

func (t *echoRefTxn) VerifyReferences(ctx context.Context, fetch ReferenceFetcher) error {
	for i := 0; i < t.refs; i++ {
		err := fetch.Fetch(ctx, i, func(s *bytestream.Stream) error {
			var hdr [4]byte
			if err := s.Read(hdr[:]); err != nil {
				return err
			}
			n := int(hdr[0])
			body := make([]byte, n)
			if err := s.Read(body); err != nil {
				return err
			}
			t.seen = append(t.seen, body)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
