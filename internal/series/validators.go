package series

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/web3-frozen/near-dashboard/internal/source/nearrpc"
)

const (
	BlockProducer     = "Block Producer"
	ChunkOnlyProducer = "Chunk-Only Producer"
)

// yoctoPerNEAR is 10^24.
var yoctoPerNEAR = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil))

// Validator is a current-epoch validator with stake in NEAR.
type Validator struct {
	Rank      int     `json:"rank"`
	AccountID string  `json:"account_id"`
	Stake     float64 `json:"stake"`
	Type      string  `json:"validator_type"`
	Label     string  `json:"label"`
}

// Validators converts RPC validators to NEAR-denominated rows sorted by
// stake descending. Entries without an account or with an unparseable
// stake are dropped.
func Validators(raw []nearrpc.Validator) []Validator {
	out := make([]Validator, 0, len(raw))
	for _, v := range raw {
		if v.AccountID == "" {
			continue
		}
		stake, ok := yoctoToNEAR(v.Stake)
		if !ok {
			continue
		}
		typ := ChunkOnlyProducer
		if v.NumExpectedBlocks != nil && *v.NumExpectedBlocks > 0 {
			typ = BlockProducer
		}
		out = append(out, Validator{AccountID: v.AccountID, Stake: stake, Type: typ})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Stake > out[j].Stake })
	for i := range out {
		out[i].Rank = i + 1
		out[i].Label = fmt.Sprintf("%4d. %s", out[i].Rank, out[i].AccountID)
	}
	return out
}

func yoctoToNEAR(s string) (float64, bool) {
	y, ok := new(big.Float).SetString(s)
	if !ok || y.Sign() < 0 {
		return 0, false
	}
	f, _ := new(big.Float).Quo(y, yoctoPerNEAR).Float64()
	return f, true
}
