package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/validate"
)

// balance is the balance of one account with the name it is known by.
type balance struct {
	Address database.Address `json:"address"`
	Name    string           `json:"name,omitempty"`
	Balance uint64           `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type tx struct {
	Sender        database.Address `json:"sender"`
	SenderName    string           `json:"sender_name,omitempty"`
	Recipient     database.Address `json:"recipient"`
	RecipientName string           `json:"recipient_name,omitempty"`
	Amount        uint64           `json:"amount"`
	Signature     string           `json:"signature,omitempty"`
}

type chain struct {
	Chain  []database.Block `json:"chain"`
	Length int              `json:"length"`
}

// =============================================================================

// newTx is what a wallet submits. The sender and recipient can be a name
// known by the name service unless the transaction is signed.
type newTx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount"`
	Signature string `json:"signature" validate:"omitempty,hexadecimal"`
}

// Validate checks the data in the model is considered clean.
func (ntx newTx) Validate() error {
	return validate.Check(ntx)
}

// newMine names the account that receives the mining reward. An empty
// miner means the node's beneficiary.
type newMine struct {
	Miner string `json:"miner"`
}

// newPeers is the list of node addresses to register.
type newPeers struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

// Validate checks the data in the model is considered clean.
func (np newPeers) Validate() error {
	return validate.Check(np)
}
