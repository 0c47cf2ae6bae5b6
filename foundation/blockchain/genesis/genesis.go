// Package genesis maintains access to the genesis file and the consensus
// parameters it defines.
package genesis

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/holiman/uint256"
)

// Default consensus parameters.
const (
	DefaultInitialReward            = 50  // Whole coins paid by the first block.
	DefaultHalvingInterval          = 210 // Blocks between reward halvings.
	DefaultIdealBlockTime           = 10  // Seconds.
	DefaultDifficultyUpdateInterval = 50  // Blocks between retargets.
	DefaultMaxMempoolTxAge          = 600 // Seconds.
	DefaultTransPerBlock            = 100
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                     time.Time     `json:"date"`
	ChainID                  uint16        `json:"chain_id"`                   // The chain id represents an unique id for this running instance.
	TransPerBlock            uint16        `json:"trans_per_block"`            // The maximum number of mempool transactions placed in a block template.
	InitialReward            uint64        `json:"initial_reward"`             // Whole coins paid to the miner of a block before any halving.
	HalvingInterval          uint64        `json:"halving_interval"`           // Number of blocks between reward halvings.
	IdealBlockTime           uint64        `json:"ideal_block_time"`           // Seconds the network should take to mine a block.
	DifficultyUpdateInterval uint64        `json:"difficulty_update_interval"` // Number of blocks between difficulty retargets.
	MinTarget                digest.Digest `json:"min_target"`                 // Easiest target allowed on the network, big-endian.
	MaxMempoolTxAge          uint64        `json:"max_mempool_tx_age"`         // Seconds a transaction can wait in the mempool.
}

// Default returns the genesis values used when no genesis file is provided.
func Default() Genesis {
	var minTarget digest.Digest
	for i := 2; i < len(minTarget); i++ {
		minTarget[i] = 0xff
	}

	return Genesis{
		Date:                     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:                  1,
		TransPerBlock:            DefaultTransPerBlock,
		InitialReward:            DefaultInitialReward,
		HalvingInterval:          DefaultHalvingInterval,
		IdealBlockTime:           DefaultIdealBlockTime,
		DifficultyUpdateInterval: DefaultDifficultyUpdateInterval,
		MinTarget:                minTarget,
		MaxMempoolTxAge:          DefaultMaxMempoolTxAge,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Values missing from the file keep
// their default. An empty path returns the defaults.
func Load(path string) (Genesis, error) {
	genesis := Default()
	if path == "" {
		return genesis, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the consensus parameters can be used.
func (g Genesis) Validate() error {
	switch {
	case g.TransPerBlock == 0:
		return errors.New("trans per block must be greater than zero")
	case g.HalvingInterval == 0:
		return errors.New("halving interval must be greater than zero")
	case g.IdealBlockTime == 0:
		return errors.New("ideal block time must be greater than zero")
	case g.DifficultyUpdateInterval == 0:
		return errors.New("difficulty update interval must be greater than zero")
	case g.MinTarget.IsZero():
		return errors.New("min target must be greater than zero")
	}

	return nil
}

// MinTargetInt returns the easiest allowed target as an integer.
func (g Genesis) MinTargetInt() *uint256.Int {
	return g.MinTarget.Int()
}

// MaxMempoolAge returns the mempool age limit as a duration.
func (g Genesis) MaxMempoolAge() time.Duration {
	return time.Duration(g.MaxMempoolTxAge) * time.Second
}
