package mempool_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/digest"
	"github.com/ardanlabs/utxochain/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxochain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// =============================================================================

func Test_FeeOrdering(t *testing.T) {
	pk, utxos, keys := setup(t, 100, 100, 100, 100)

	type table struct {
		name string
		fees []uint64
		best []uint64
	}

	tt := []table{
		{name: "ascending", fees: []uint64{1, 2, 3, 4}, best: []uint64{4, 3}},
		{name: "descending", fees: []uint64{40, 30, 20, 10}, best: []uint64{40, 30}},
		{name: "mixed", fees: []uint64{5, 50, 0, 7}, best: []uint64{50, 7}},
	}

	t.Log("Given the need to keep the mempool ordered by fee.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s fees.", testID, tst.name)
			{
				f := func(t *testing.T) {
					mp := mempool.New()
					set := utxos.Copy()

					for i, fee := range tst.fees {
						tx := spend(t, pk, keys[i], 100-fee)
						if _, err := mp.Add(tx, set, time.Now()); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to add the transaction: %s", failed, testID, err)
						}
					}

					entries := mp.Copy()
					for i := 1; i < len(entries); i++ {
						if entries[i-1].Fee > entries[i].Fee {
							t.Fatalf("\t%s\tTest %d:\tShould be sorted ascending by fee: %d > %d", failed, testID, entries[i-1].Fee, entries[i].Fee)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be sorted ascending by fee.", success, testID)

					best := mp.PickBest(2)
					for i, tx := range best {
						fee := 100 - tx.Outputs[0].Value
						if fee != tst.best[i] {
							t.Fatalf("\t%s\tTest %d:\tShould pick the best fee first: got %d, exp %d", failed, testID, fee, tst.best[i])
						}
					}
					t.Logf("\t%s\tTest %d:\tShould pick the best fee first.", success, testID)

					if len(mp.PickBest(-1)) != len(tst.fees) {
						t.Fatalf("\t%s\tTest %d:\tShould pick all the transactions.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould pick all the transactions.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Eviction(t *testing.T) {
	pk, utxos, keys := setup(t, 100)

	t.Log("Given the need to replace a transaction spending a reserved utxo.")
	{
		mp := mempool.New()

		first := spend(t, pk, keys[0], 90)
		if _, err := mp.Add(first, utxos, time.Now()); err != nil {
			t.Fatalf("\t%s\tShould be able to add the first transaction: %s", failed, err)
		}
		if !utxos[keys[0]].Pending {
			t.Fatalf("\t%s\tShould reserve the utxo.", failed)
		}
		t.Logf("\t%s\tShould reserve the utxo.", success)

		second := spend(t, pk, keys[0], 95)
		evicted, err := mp.Add(second, utxos, time.Now())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to add the second transaction: %s", failed, err)
		}

		if len(evicted) != 1 || !evicted[0].Equals(first) {
			t.Fatalf("\t%s\tShould evict the first transaction: %v", failed, evicted)
		}
		t.Logf("\t%s\tShould evict the first transaction.", success)

		if mp.Count() != 1 || !mp.Contains(second.Hash()) || mp.Contains(first.Hash()) {
			t.Fatalf("\t%s\tShould only hold the second transaction.", failed)
		}
		if !utxos[keys[0]].Pending {
			t.Fatalf("\t%s\tShould keep the utxo reserved by the second transaction.", failed)
		}
		t.Logf("\t%s\tShould only hold the second transaction.", success)
	}
}

func Test_Rejections(t *testing.T) {
	pk, utxos, keys := setup(t, 100, 100)

	type table struct {
		name string
		tx   func(t *testing.T) database.Tx
	}

	tt := []table{
		{
			name: "no inputs",
			tx: func(t *testing.T) database.Tx {
				return database.NewCoinbaseTx(1, signature.PublicKey{})
			},
		},
		{
			name: "unknown utxo",
			tx: func(t *testing.T) database.Tx {
				return spend(t, pk, digest.Hash("missing"), 1)
			},
		},
		{
			name: "outputs exceed inputs",
			tx: func(t *testing.T) database.Tx {
				return spend(t, pk, keys[0], 101)
			},
		},
		{
			name: "duplicate input",
			tx: func(t *testing.T) database.Tx {
				tx := spend(t, pk, keys[0], 1)
				return database.NewTx(append(tx.Inputs, tx.Inputs[0]), tx.Outputs)
			},
		},
	}

	t.Log("Given the need to reject invalid transactions.")
	{
		mp := mempool.New()

		reserved := spend(t, pk, keys[1], 50)
		if _, err := mp.Add(reserved, utxos, time.Now()); err != nil {
			t.Fatalf("\t%s\tShould be able to add a transaction: %s", failed, err)
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					before := utxos.Copy()

					_, err := mp.Add(tst.tx(t), utxos, time.Now())
					if !errors.Is(err, database.ErrInvalidTransaction) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the transaction: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the transaction.", success, testID)

					if mp.Count() != 1 || !mp.Contains(reserved.Hash()) {
						t.Fatalf("\t%s\tTest %d:\tShould not change the mempool.", failed, testID)
					}
					for key, utxo := range before {
						if utxos[key] != utxo {
							t.Fatalf("\t%s\tTest %d:\tShould not change the utxos.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould not change any state.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}

		if _, err := mp.Add(reserved, utxos, time.Now()); !errors.Is(err, database.ErrInvalidTransaction) {
			t.Fatalf("\t%s\tShould reject a transaction already in the mempool: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a transaction already in the mempool.", success)
	}
}

func Test_Cleanup(t *testing.T) {
	pk, utxos, keys := setup(t, 100, 100)

	t.Log("Given the need to expire old transactions.")
	{
		mp := mempool.New()
		now := time.Now()

		old := spend(t, pk, keys[0], 10)
		if _, err := mp.Add(old, utxos, now.Add(-11*time.Minute)); err != nil {
			t.Fatalf("\t%s\tShould be able to add the old transaction: %s", failed, err)
		}

		fresh := spend(t, pk, keys[1], 10)
		if _, err := mp.Add(fresh, utxos, now.Add(-time.Minute)); err != nil {
			t.Fatalf("\t%s\tShould be able to add the fresh transaction: %s", failed, err)
		}

		expired := mp.Cleanup(utxos, now, 10*time.Minute)
		if len(expired) != 1 || !expired[0].Equals(old) {
			t.Fatalf("\t%s\tShould expire the old transaction: %v", failed, expired)
		}
		t.Logf("\t%s\tShould expire the old transaction.", success)

		if utxos[keys[0]].Pending {
			t.Fatalf("\t%s\tShould release the utxo of the old transaction.", failed)
		}
		if !utxos[keys[1]].Pending || !mp.Contains(fresh.Hash()) {
			t.Fatalf("\t%s\tShould keep the fresh transaction.", failed)
		}
		t.Logf("\t%s\tShould release the utxo and keep the fresh transaction.", success)

		again := spend(t, pk, keys[0], 20)
		if evicted, err := mp.Add(again, utxos, now); err != nil || len(evicted) != 0 {
			t.Fatalf("\t%s\tShould be able to spend the released utxo: %v %v", failed, evicted, err)
		}
		t.Logf("\t%s\tShould be able to spend the released utxo.", success)
	}
}

func Test_MinedAndReserve(t *testing.T) {
	pk, utxos, keys := setup(t, 100, 100)

	t.Log("Given the need to prune the mempool after a block.")
	{
		mp := mempool.New()

		mined := spend(t, pk, keys[0], 10)
		waiting := spend(t, pk, keys[1], 10)
		for _, tx := range []database.Tx{mined, waiting} {
			if _, err := mp.Add(tx, utxos, time.Now()); err != nil {
				t.Fatalf("\t%s\tShould be able to add the transaction: %s", failed, err)
			}
		}

		if n := mp.RemoveMined([]database.Tx{mined}); n != 1 {
			t.Fatalf("\t%s\tShould remove the mined transaction: %d", failed, n)
		}
		t.Logf("\t%s\tShould remove the mined transaction.", success)

		rebuilt := database.UTXOSet{keys[1]: {Output: utxos[keys[1]].Output}}
		if stale := mp.Reserve(rebuilt); len(stale) != 0 {
			t.Fatalf("\t%s\tShould not drop a valid transaction: %v", failed, stale)
		}
		if !rebuilt[keys[1]].Pending {
			t.Fatalf("\t%s\tShould reserve the utxo again after a rebuild.", failed)
		}
		t.Logf("\t%s\tShould reserve the utxo again after a rebuild.", success)

		if stale := mp.Reserve(database.UTXOSet{}); len(stale) != 1 || mp.Count() != 0 {
			t.Fatalf("\t%s\tShould drop transactions spending missing utxos: %v", failed, stale)
		}
		t.Logf("\t%s\tShould drop transactions spending missing utxos.", success)
	}
}

// =============================================================================

func setup(t *testing.T, values ...uint64) (*ecdsa.PrivateKey, database.UTXOSet, []digest.Digest) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
	}

	owner := signature.PublicKeyFromECDSA(pk.PublicKey)

	utxos := make(database.UTXOSet)
	keys := make([]digest.Digest, len(values))
	for i, v := range values {
		out := database.NewTxOutput(v, owner)
		keys[i] = out.Hash()
		utxos[keys[i]] = database.UTXO{Output: out}
	}

	return pk, utxos, keys
}

func spend(t *testing.T, pk *ecdsa.PrivateKey, prev digest.Digest, value uint64) database.Tx {
	in, err := database.NewTxInput(prev, signature.NewKeySigner(pk))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the input: %s", failed, err)
	}

	out := database.NewTxOutput(value, signature.PublicKeyFromECDSA(pk.PublicKey))
	return database.NewTx([]database.TxInput{in}, []database.TxOutput{out})
}
