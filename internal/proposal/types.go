package proposal

// ProposalKey identifies a single proposal unambiguously: the proposer's
// peer index and a per-proposer monotonically increasing counter.
type ProposalKey struct {
	ProposerID uint64
	ProposalID uint64
}

// Kind tags which field of Item is populated.
type Kind uint8

const (
	KindFirstBlock Kind = iota
	KindTransactions
	KindDruidTransactions
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindFirstBlock:
		return "FirstBlock"
	case KindTransactions:
		return "Transactions"
	case KindDruidTransactions:
		return "DruidTransactions"
	case KindBlock:
		return "Block"
	default:
		return "Unknown"
	}
}

// BlockStoredInfo is the storage node's report that a block has been
// persisted: its hash, number, and the mining-reward outputs it produced.
type BlockStoredInfo struct {
	BlockHash          string
	BlockNum           uint64
	MiningTransactions []Transaction // sorted by Hash
}

// Item is the proposal sum type. Exactly one field is meaningful, selected
// by Kind; the rest are left at their zero value. Encoding the whole struct
// (rather than only the active variant) keeps the wire format a single
// fixed RLP list shape, which is simpler to reason about than a
// length-prefixed union and is still fully deterministic.
type Item struct {
	Kind Kind

	FirstBlockUTXO []Transaction   // KindFirstBlock
	Transactions   []Transaction   // KindTransactions
	Druids         [][]Transaction // KindDruidTransactions
	Block          BlockStoredInfo // KindBlock
}

// NewFirstBlockItem builds a FirstBlock proposal item from a UTXO set.
func NewFirstBlockItem(utxo TxMap) Item {
	return Item{Kind: KindFirstBlock, FirstBlockUTXO: utxo.Sorted()}
}

// NewTransactionsItem builds a Transactions proposal item from a batch.
func NewTransactionsItem(batch TxMap) Item {
	return Item{Kind: KindTransactions, Transactions: batch.Sorted()}
}

// NewDruidTransactionsItem builds a DruidTransactions proposal item from a
// list of droplets.
func NewDruidTransactionsItem(droplets []TxMap) Item {
	out := make([][]Transaction, len(droplets))
	for i, d := range droplets {
		out[i] = d.Sorted()
	}
	return Item{Kind: KindDruidTransactions, Druids: out}
}

// NewBlockItem builds a Block proposal item from a storage report.
func NewBlockItem(info BlockStoredInfo) Item {
	return Item{Kind: KindBlock, Block: info}
}

// Envelope is the wire unit handed to the consensus log adapter.
type Envelope struct {
	Key  ProposalKey
	Item Item
}
