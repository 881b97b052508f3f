package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/pow"
)

// GenesisPrevHash is the previous hash recorded in the genesis block. It is a
// fixed sentinel and not the digest of any block.
const GenesisPrevHash = "1"

// Set of error variables for block validation.
var (
	ErrChainMismatch = errors.New("block does not extend the chain")
	ErrChainForked   = fmt.Errorf("%w: blockchain forked, start resync", ErrChainMismatch)
	ErrInvalidProof  = errors.New("proof does not solve the puzzle")
)

// =============================================================================

// Block represents a group of transactions batched together. The fields are
// declared in lexicographic order of their json keys so the encoding is the
// canonical form used for hashing.
type Block struct {
	Index        uint64 `json:"index"`         // Position in the chain, starting at 1.
	PreviousHash string `json:"previous_hash"` // Hash of the previous block in the chain.
	Proof        uint64 `json:"proof"`         // Value that solves the puzzle against the previous proof.
	Timestamp    int64  `json:"timestamp"`     // Unix time in seconds the block was sealed.
	Transactions []Tx   `json:"transactions"`  // Transactions sealed into this block.
}

// GenesisBlock constructs the first block of the chain from the genesis
// settings. Nodes using the same genesis settings produce the same block.
func GenesisBlock(gen genesis.Genesis) Block {
	return Block{
		Index:        1,
		PreviousHash: GenesisPrevHash,
		Proof:        gen.Proof,
		Timestamp:    gen.Date.Unix(),
		Transactions: []Tx{},
	}
}

// NewBlock constructs the block that follows the previous block.
func NewBlock(prevBlock Block, trans []Tx, proof uint64, now time.Time) Block {
	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Index:        prevBlock.Index + 1,
		PreviousHash: prevBlock.Hash(),
		Proof:        proof,
		Timestamp:    now.UTC().Unix(),
		Transactions: trans,
	}
}

// Hash returns the unique hash for the Block. The digest is the lowercase hex
// sha256 of the compact json encoding of the block, keys in lexicographic
// order and transactions encoded as an empty array when there are none.
// Html characters are written as is. U+2028 and U+2029 are written as the
// escapes \u2028 and \u2029.
func (b Block) Hash() string {
	if b.Transactions == nil {
		b.Transactions = []Tx{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return ""
	}

	// Encode terminates the value with a newline.
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ValidateBlock takes a block and validates it to be the next block
// after the previous block.
func (b Block) ValidateBlock(previousBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: chain is not forked", b.Index)

	// The node who sent this block has a chain that is two or more blocks ahead
	// of ours. This means there has been a fork and we are on the wrong side.
	nextIndex := previousBlock.Index + 1
	if b.Index > nextIndex {
		return fmt.Errorf("%w: got %d, exp %d", ErrChainForked, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	if b.Index != nextIndex {
		return fmt.Errorf("%w: this block is not the next index, got %d, exp %d", ErrChainMismatch, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: previous hash does match previous block", b.Index)

	if prevHash := previousBlock.Hash(); b.PreviousHash != prevHash {
		return fmt.Errorf("%w: previous block hash doesn't match, got %s, exp %s", ErrChainMismatch, b.PreviousHash, prevHash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: proof solves the puzzle", b.Index)

	if !pow.IsValid(difficulty, previousBlock.Proof, b.Proof) {
		return fmt.Errorf("%w: %w: last proof %d, proof %d", ErrChainMismatch, ErrInvalidProof, previousBlock.Proof, b.Proof)
	}

	return nil
}

// =============================================================================

// ValidateChain checks the full chain end to end. The first block must be the
// specified genesis block and every following block must link to and solve
// the puzzle against its predecessor.
func ValidateChain(blocks []Block, genesisBlock Block, difficulty uint, evHandler func(v string, args ...any)) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: chain is empty", ErrChainMismatch)
	}

	if got, exp := blocks[0].Hash(), genesisBlock.Hash(); got != exp {
		return fmt.Errorf("%w: genesis block doesn't match, got %s, exp %s", ErrChainMismatch, got, exp)
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], difficulty, evHandler); err != nil {
			return err
		}
	}

	return nil
}
