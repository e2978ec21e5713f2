package signing

// QueryTag identifies the host request expected by the current state.
type QueryTag int

const (
	QueryInitiate QueryTag = iota + 1
	QueryTxnChunk
	QueryReferenceChunk
	QuerySignature
	QueryPublicKey
)

func (t QueryTag) String() string {
	switch t {
	case QueryInitiate:
		return "initiate"
	case QueryTxnChunk:
		return "txn_chunk"
	case QueryReferenceChunk:
		return "reference_chunk"
	case QuerySignature:
		return "signature"
	case QueryPublicKey:
		return "public_key"
	default:
		return "unknown"
	}
}

// Query is a host request.
type Query struct {
	Tag       QueryTag
	Initiate  *InitiateRequest
	Chunk     *Chunk
	PublicKey *PublicKeyRequest
}

// PublicKeyRequest opens a public key export flow.
type PublicKeyRequest struct {
	WalletID [32]byte
	Chain    ChainID
	Paths    [][]uint32

	// Extended asks for the serialized extended public key of every path
	// next to the plain key.
	Extended bool
}

// Chunk is one piece of a chunked transfer.
type Chunk struct {
	Index     uint32
	Total     uint32
	Remaining uint32
	Bytes     []byte
}

// InitiateRequest opens a signing flow.
type InitiateRequest struct {
	WalletID [32]byte
	Chain    ChainID
	Path     []uint32
	TxnSize  uint32

	BTC *BTCInitiate
	ICP *ICPInitiate
	EVM *EVMInitiate
}

// BTCInitiate carries the spent outputs and the change declaration.
type BTCInitiate struct {
	Inputs []BTCInput
	Change *BTCChange
}

// BTCInput describes one output being spent. PrevTxnHash is in
// serialization order.
type BTCInput struct {
	PrevTxnHash  [32]byte
	PrevIndex    uint32
	Value        uint64
	ScriptPubKey []byte
	ChangeIndex  uint32
	AddressIndex uint32
}

// BTCChange declares which output returns funds to the wallet.
type BTCChange struct {
	OutputIndex  uint32
	AddressIndex uint32
}

// ICPInitiate carries the envelope fields the request id commits to.
type ICPInitiate struct {
	IngressExpiry uint64
	Nonce         []byte
}

// EVMInitiate carries the chain id the payload must be bound to.
type EVMInitiate struct {
	ChainID uint64
}

// ResultTag identifies a device response.
type ResultTag int

const (
	ResultConfirmation ResultTag = iota + 1
	ResultChunkAccepted
	ResultReferenceAccepted
	ResultSignature
	ResultPublicKeys
)

func (t ResultTag) String() string {
	switch t {
	case ResultConfirmation:
		return "confirmation"
	case ResultChunkAccepted:
		return "chunk_accepted"
	case ResultReferenceAccepted:
		return "reference_accepted"
	case ResultSignature:
		return "signature"
	case ResultPublicKeys:
		return "public_keys"
	default:
		return "unknown"
	}
}

// Result is a device response.
type Result struct {
	Tag        ResultTag
	ChunkIndex uint32

	// Fingerprint is set on the last transaction chunk ack. It is the
	// BLAKE2b-256 digest of the assembled transaction.
	Fingerprint []byte

	Signature []byte

	// PublicKeys holds one compressed key per requested path.
	PublicKeys [][]byte

	// ExtendedKeys is set when the request asked for extended keys.
	ExtendedKeys []string
}
