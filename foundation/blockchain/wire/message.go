// Package wire implements the message protocol nodes, miners and wallets use
// to talk to each other over a byte stream.
package wire

import (
	"fmt"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/fxamacker/cbor/v2"
)

// Kind identifies the type of a message on the wire.
type Kind uint8

// The closed set of message kinds.
const (
	KindFetchUTXOs Kind = iota + 1
	KindUTXOs
	KindSubmitTransaction
	KindNewTransaction
	KindFetchTemplate
	KindTemplate
	KindValidateTemplate
	KindTemplateValidity
	KindSubmitTemplate
	KindDiscoverNodes
	KindNodeList
	KindAskDifference
	KindDifference
	KindFetchBlock
	KindNewBlock
)

var kindNames = map[Kind]string{
	KindFetchUTXOs:        "fetch_utxos",
	KindUTXOs:             "utxos",
	KindSubmitTransaction: "submit_transaction",
	KindNewTransaction:    "new_transaction",
	KindFetchTemplate:     "fetch_template",
	KindTemplate:          "template",
	KindValidateTemplate:  "validate_template",
	KindTemplateValidity:  "template_validity",
	KindSubmitTemplate:    "submit_template",
	KindDiscoverNodes:     "discover_nodes",
	KindNodeList:          "node_list",
	KindAskDifference:     "ask_difference",
	KindDifference:        "difference",
	KindFetchBlock:        "fetch_block",
	KindNewBlock:          "new_block",
}

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Message represents any value that can be sent on the wire.
type Message interface {
	Kind() Kind
}

// =============================================================================

// FetchUTXOs asks a node for the unspent outputs owned by a key.
type FetchUTXOs struct {
	Owner signature.PublicKey `cbor:"1,keyasint"`
}

// UTXOEntry is an output and whether a mempool transaction reserves it.
type UTXOEntry struct {
	Output  database.TxOutput `cbor:"1,keyasint"`
	Pending bool              `cbor:"2,keyasint"`
}

// UTXOs answers FetchUTXOs.
type UTXOs struct {
	UTXOs []UTXOEntry `cbor:"1,keyasint"`
}

// SubmitTransaction hands a transaction from a wallet to a node.
type SubmitTransaction struct {
	Tx database.Tx `cbor:"1,keyasint"`
}

// NewTransaction relays a transaction accepted into a mempool to a peer.
type NewTransaction struct {
	Tx database.Tx `cbor:"1,keyasint"`
}

// FetchTemplate asks a node for a block template paying the miner key.
type FetchTemplate struct {
	Miner signature.PublicKey `cbor:"1,keyasint"`
}

// Template answers FetchTemplate.
type Template struct {
	Block database.Block `cbor:"1,keyasint"`
}

// ValidateTemplate asks a node whether a template can still be mined.
type ValidateTemplate struct {
	Block database.Block `cbor:"1,keyasint"`
}

// TemplateValidity answers ValidateTemplate.
type TemplateValidity struct {
	Valid bool `cbor:"1,keyasint"`
}

// SubmitTemplate hands a mined template to a node.
type SubmitTemplate struct {
	Block database.Block `cbor:"1,keyasint"`
}

// DiscoverNodes asks a node for the peers it knows. Host is the address the
// sender can be reached at, empty when the sender doesn't accept connections.
type DiscoverNodes struct {
	Host string `cbor:"1,keyasint"`
}

// NodeList answers DiscoverNodes.
type NodeList struct {
	Nodes []string `cbor:"1,keyasint"`
}

// AskDifference asks a node how far its chain is from the sender's height.
type AskDifference struct {
	Height uint64 `cbor:"1,keyasint"`
}

// Difference answers AskDifference with the receiver's height minus the
// sender's height.
type Difference struct {
	Delta int64 `cbor:"1,keyasint"`
}

// FetchBlock asks a node for the block at a height. The node answers with
// NewBlock.
type FetchBlock struct {
	Height uint64 `cbor:"1,keyasint"`
}

// NewBlock carries a block, either relayed after it was accepted or in
// answer to FetchBlock.
type NewBlock struct {
	Block database.Block `cbor:"1,keyasint"`
}

// Kind implementations for the message set.
func (FetchUTXOs) Kind() Kind { return KindFetchUTXOs }
func (UTXOs) Kind() Kind { return KindUTXOs }
func (SubmitTransaction) Kind() Kind { return KindSubmitTransaction }
func (NewTransaction) Kind() Kind { return KindNewTransaction }
func (FetchTemplate) Kind() Kind { return KindFetchTemplate }
func (Template) Kind() Kind { return KindTemplate }
func (ValidateTemplate) Kind() Kind { return KindValidateTemplate }
func (TemplateValidity) Kind() Kind { return KindTemplateValidity }
func (SubmitTemplate) Kind() Kind { return KindSubmitTemplate }
func (DiscoverNodes) Kind() Kind { return KindDiscoverNodes }
func (NodeList) Kind() Kind { return KindNodeList }
func (AskDifference) Kind() Kind { return KindAskDifference }
func (Difference) Kind() Kind { return KindDifference }
func (FetchBlock) Kind() Kind { return KindFetchBlock }
func (NewBlock) Kind() Kind { return KindNewBlock }

// decoders maps every kind to the function decoding its payload.
var decoders = map[Kind]func(payload []byte) (Message, error){
	KindFetchUTXOs:        decodeAs[FetchUTXOs],
	KindUTXOs:             decodeAs[UTXOs],
	KindSubmitTransaction: decodeAs[SubmitTransaction],
	KindNewTransaction:    decodeAs[NewTransaction],
	KindFetchTemplate:     decodeAs[FetchTemplate],
	KindTemplate:          decodeAs[Template],
	KindValidateTemplate:  decodeAs[ValidateTemplate],
	KindTemplateValidity:  decodeAs[TemplateValidity],
	KindSubmitTemplate:    decodeAs[SubmitTemplate],
	KindDiscoverNodes:     decodeAs[DiscoverNodes],
	KindNodeList:          decodeAs[NodeList],
	KindAskDifference:     decodeAs[AskDifference],
	KindDifference:        decodeAs[Difference],
	KindFetchBlock:        decodeAs[FetchBlock],
	KindNewBlock:          decodeAs[NewBlock],
}

// decodeAs decodes the payload into a message of type T.
func decodeAs[T Message](payload []byte) (Message, error) {
	var m T
	if err := cbor.Unmarshal(payload, &m); err != nil {
		return nil, err
	}
	return m, nil
}
