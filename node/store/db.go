package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"smartrewards.dev/node/consensus"
)

var (
	bucketRounds = []byte("reward_rounds_by_number")
	bucketPayees = []byte("reward_payees_by_round")
	bucketMeta   = []byte("meta")

	keyLatestRound = []byte("latest_round")
)

var (
	// ErrRoundNotFound is returned when a round has no stored record.
	ErrRoundNotFound = errors.New("reward round not found")
	// ErrManifestStale is returned by PutRound when the round committed but
	// MANIFEST.json could not be rewritten. Open repairs the manifest.
	ErrManifestStale = errors.New("manifest not updated")
)

// DB persists closed reward rounds and their payee lists. Rounds are
// immutable once written.
type DB struct {
	chainDir string
	db       *bolt.DB
	manifest *Manifest
}

func Open(datadir string, network string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("datadir required")
	}
	if network == "" {
		return nil, fmt.Errorf("network required")
	}

	chainDir := ChainDir(datadir, network)
	if err := ensureDir(filepath.Join(chainDir, "db")); err != nil {
		return nil, err
	}

	path := filepath.Join(chainDir, "db", "rewards.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, db: bdb}

	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRounds, bucketPayees, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	switch {
	case err != nil && os.IsNotExist(err):
		m = &Manifest{SchemaVersion: SchemaVersionV1, Network: network}
	case err != nil:
		_ = bdb.Close()
		return nil, fmt.Errorf("read manifest: %w", err)
	case m.SchemaVersion > SchemaVersionV1:
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest schema_version %d > supported %d", m.SchemaVersion, SchemaVersionV1)
	case m.Network != network:
		_ = bdb.Close()
		return nil, fmt.Errorf("manifest network %q does not match %q", m.Network, network)
	}
	d.manifest = m
	if err := d.repairManifest(); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return d, nil
}

// repairManifest rewrites MANIFEST.json when it lags the latest stored round.
func (d *DB) repairManifest() error {
	latest, err := d.LatestRound()
	if err != nil {
		return err
	}
	if latest.Number == d.manifest.LatestRound {
		return nil
	}
	payees, err := d.PayeeList(latest.Number)
	if err != nil {
		return err
	}
	return d.commitManifest(latest, payees)
}

func (d *DB) commitManifest(round consensus.RewardRound, payees consensus.RewardPayeeList) error {
	digest := PayeeListDigest(payees)
	m := *d.manifest
	m.LatestRound = round.Number
	m.LatestRoundEndHeight = round.EndBlockHeight
	m.LatestPayeesSHA3 = hex.EncodeToString(digest[:])
	if err := writeManifestAtomic(d.chainDir, &m); err != nil {
		return err
	}
	d.manifest = &m
	return nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) ChainDir() string { return d.chainDir }

func (d *DB) Manifest() *Manifest {
	if d == nil {
		return nil
	}
	return d.manifest
}

// PutRound stores a closed round, its payee list and the latest-round pointer
// in one bbolt transaction, then refreshes the manifest. The bbolt commit is
// authoritative: an error wrapping ErrManifestStale means the round is stored
// and must not be put again.
func (d *DB) PutRound(round consensus.RewardRound, payees consensus.RewardPayeeList) error {
	if round.Number == 0 {
		return fmt.Errorf("round number 0 is reserved")
	}
	key := encodeRoundKey(round.Number)
	if err := d.db.Update(func(tx *bolt.Tx) error {
		rounds := tx.Bucket(bucketRounds)
		if rounds.Get(key) != nil {
			return fmt.Errorf("round %d already stored", round.Number)
		}
		if err := rounds.Put(key, encodeRound(round)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketPayees).Put(key, encodePayeeList(payees)); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyLatestRound, key)
	}); err != nil {
		return err
	}

	if err := d.commitManifest(round, payees); err != nil {
		return fmt.Errorf("round %d stored: %w: %v", round.Number, ErrManifestStale, err)
	}
	return nil
}

// LatestRound returns the most recently stored round, or the zero round when
// none exists.
func (d *DB) LatestRound() (consensus.RewardRound, error) {
	var out consensus.RewardRound
	err := d.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketMeta).Get(keyLatestRound)
		if key == nil {
			return nil
		}
		v := tx.Bucket(bucketRounds).Get(key)
		if v == nil {
			return fmt.Errorf("latest round %x: missing record", key)
		}
		r, err := decodeRound(v)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

func (d *DB) GetRound(number uint64) (consensus.RewardRound, bool, error) {
	var out consensus.RewardRound
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRounds).Get(encodeRoundKey(number))
		if v == nil {
			return nil
		}
		r, err := decodeRound(v)
		if err != nil {
			return err
		}
		out = r
		ok = true
		return nil
	})
	return out, ok, err
}

// PayeeList returns a private copy of the stored payee list of a round.
func (d *DB) PayeeList(number uint64) (consensus.RewardPayeeList, error) {
	var out consensus.RewardPayeeList
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketPayees).Get(encodeRoundKey(number))
		if v == nil {
			return fmt.Errorf("round %d: %w", number, ErrRoundNotFound)
		}
		list, err := decodePayeeList(v)
		if err != nil {
			return fmt.Errorf("round %d: %w", number, err)
		}
		out = list
		return nil
	})
	return out, err
}

// ForEachRound visits every stored round in ascending number order.
func (d *DB) ForEachRound(fn func(consensus.RewardRound) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRounds).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			number, err := decodeRoundKey(k)
			if err != nil {
				return err
			}
			r, err := decodeRound(v)
			if err != nil {
				return err
			}
			if r.Number != number {
				return fmt.Errorf("round key %d holds round %d", number, r.Number)
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}
