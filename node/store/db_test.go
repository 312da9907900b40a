package store

import (
	"encoding/hex"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"smartrewards.dev/node/consensus"
)

func payee(b byte, reward uint64) consensus.RewardPayee {
	return consensus.RewardPayee{
		Destination: consensus.Destination{
			CovenantType: consensus.COV_TYPE_P2PK,
			CovenantData: []byte{0x01, b, b},
		},
		Reward: reward,
	}
}

func openTestDB(t *testing.T, datadir string) *DB {
	t.Helper()
	db, err := Open(datadir, "devnet")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDB_EmptyLedgerHasNoRound(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	latest, err := db.LatestRound()
	require.NoError(t, err)
	require.Zero(t, latest.Number)

	_, ok, err := db.GetRound(1)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.PayeeList(1)
	require.ErrorIs(t, err, ErrRoundNotFound)
}

func TestDB_PutRoundAndReadBack(t *testing.T) {
	datadir := t.TempDir()
	db := openTestDB(t, datadir)

	round := consensus.RewardRound{Number: 1, EndBlockHeight: 100, EligibleEntries: 3, DisqualifiedEntries: 0}
	payees := consensus.RewardPayeeList{payee(3, 30), payee(1, 10), payee(2, 0)}
	require.NoError(t, db.PutRound(round, payees))

	latest, err := db.LatestRound()
	require.NoError(t, err)
	require.Equal(t, round, latest)

	got, ok, err := db.GetRound(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, round, got)

	list, err := db.PayeeList(1)
	require.NoError(t, err)
	require.Equal(t, payees, list)

	digest := PayeeListDigest(payees)
	m := db.Manifest()
	require.Equal(t, uint64(1), m.LatestRound)
	require.Equal(t, uint64(100), m.LatestRoundEndHeight)
	require.Equal(t, hex.EncodeToString(digest[:]), m.LatestPayeesSHA3)

	onDisk, err := readManifest(db.ChainDir())
	require.NoError(t, err)
	require.Equal(t, *m, *onDisk)
}

func TestDB_PutRoundRejectsDuplicateAndZero(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	require.Error(t, db.PutRound(consensus.RewardRound{}, nil))

	round := consensus.RewardRound{Number: 1, EndBlockHeight: 5, EligibleEntries: 1}
	require.NoError(t, db.PutRound(round, consensus.RewardPayeeList{payee(1, 1)}))
	require.Error(t, db.PutRound(round, consensus.RewardPayeeList{payee(2, 2)}))

	list, err := db.PayeeList(1)
	require.NoError(t, err)
	require.Equal(t, consensus.RewardPayeeList{payee(1, 1)}, list)
}

func TestDB_ForEachRoundAscending(t *testing.T) {
	db := openTestDB(t, t.TempDir())

	for _, n := range []uint64{1, 2, 300} {
		round := consensus.RewardRound{Number: n, EndBlockHeight: n * 10, EligibleEntries: 1}
		require.NoError(t, db.PutRound(round, consensus.RewardPayeeList{payee(byte(n), n)}))
	}

	var seen []uint64
	require.NoError(t, db.ForEachRound(func(r consensus.RewardRound) error {
		seen = append(seen, r.Number)
		return nil
	}))
	require.Equal(t, []uint64{1, 2, 300}, seen)

	stop := errors.New("stop")
	err := db.ForEachRound(func(consensus.RewardRound) error { return stop })
	require.ErrorIs(t, err, stop)
}

func TestDB_ReopenKeepsRoundsAndChecksNetwork(t *testing.T) {
	datadir := t.TempDir()

	db, err := Open(datadir, "devnet")
	require.NoError(t, err)
	round := consensus.RewardRound{Number: 1, EndBlockHeight: 7, EligibleEntries: 2, DisqualifiedEntries: 1}
	require.NoError(t, db.PutRound(round, consensus.RewardPayeeList{payee(9, 90)}))
	require.NoError(t, db.Close())

	db = openTestDB(t, datadir)
	latest, err := db.LatestRound()
	require.NoError(t, err)
	require.Equal(t, round, latest)
	require.Equal(t, uint64(1), db.Manifest().LatestRound)
}

func TestDB_PutRoundKeepsRoundWhenManifestWriteFails(t *testing.T) {
	datadir := t.TempDir()
	db, err := Open(datadir, "devnet")
	require.NoError(t, err)

	blocker := manifestPath(db.ChainDir()) + ".tmp"
	require.NoError(t, os.Mkdir(blocker, 0o700))

	round := consensus.RewardRound{Number: 1, EndBlockHeight: 7, EligibleEntries: 1}
	payees := consensus.RewardPayeeList{payee(9, 90)}
	err = db.PutRound(round, payees)
	require.ErrorIs(t, err, ErrManifestStale)

	latest, err := db.LatestRound()
	require.NoError(t, err)
	require.Equal(t, round, latest)
	require.Zero(t, db.Manifest().LatestRound)
	require.Error(t, db.PutRound(round, payees))

	require.NoError(t, os.Remove(blocker))
	require.NoError(t, db.Close())

	db = openTestDB(t, datadir)
	digest := PayeeListDigest(payees)
	require.Equal(t, uint64(1), db.Manifest().LatestRound)
	require.Equal(t, uint64(7), db.Manifest().LatestRoundEndHeight)
	require.Equal(t, hex.EncodeToString(digest[:]), db.Manifest().LatestPayeesSHA3)

	onDisk, err := readManifest(db.ChainDir())
	require.NoError(t, err)
	require.Equal(t, uint64(1), onDisk.LatestRound)
}

func TestOpenRejectsMissingArgs(t *testing.T) {
	_, err := Open("", "devnet")
	require.Error(t, err)
	_, err = Open(t.TempDir(), "")
	require.Error(t, err)
}

func TestWriteManifestAtomicNil(t *testing.T) {
	require.Error(t, writeManifestAtomic(t.TempDir(), nil))
}

func TestPayeeListEncodingRejectsCorruption(t *testing.T) {
	enc := encodePayeeList(consensus.RewardPayeeList{payee(1, 10), payee(2, 20)})

	_, err := decodePayeeList(enc[:len(enc)-1])
	require.Error(t, err)

	_, err = decodePayeeList(append(append([]byte(nil), enc...), 0x00))
	require.Error(t, err)

	// Count claims more entries than the payload can hold.
	_, err = decodePayeeList([]byte{0x05, 0x00})
	require.Error(t, err)

	_, err = decodeRound(make([]byte, 31))
	require.Error(t, err)
	_, err = decodeRoundKey([]byte{1})
	require.Error(t, err)
}

func TestPayeeListDigestIgnoresFetchOrder(t *testing.T) {
	a := consensus.RewardPayeeList{payee(1, 10), payee(2, 20), payee(3, 30)}
	b := consensus.RewardPayeeList{payee(3, 30), payee(1, 10), payee(2, 20)}
	require.Equal(t, PayeeListDigest(a), PayeeListDigest(b))

	c := consensus.RewardPayeeList{payee(1, 10), payee(2, 21), payee(3, 30)}
	require.NotEqual(t, PayeeListDigest(a), PayeeListDigest(c))
}
