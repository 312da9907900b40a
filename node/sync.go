package node

import (
	"sync"
	"time"
)

const defaultIBDLagSeconds = 24 * 60 * 60

type SyncConfig struct {
	// IBDLagSeconds is how far the tip timestamp may trail the clock before
	// the node counts as in initial block download.
	IBDLagSeconds uint64
	// Now defaults to the wall clock.
	Now func() uint64
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{IBDLagSeconds: defaultIBDLagSeconds}
}

// RewardSync tracks the local tip against the best height announced by
// peers. It implements SyncStatus; rewards count as synced only outside IBD
// and with no known block beyond the local tip.
type RewardSync struct {
	mu              sync.Mutex
	cfg             SyncConfig
	hasTip          bool
	tipHeight       uint64
	tipTimestamp    uint64
	bestKnownHeight uint64
}

func NewRewardSync(cfg SyncConfig) *RewardSync {
	if cfg.IBDLagSeconds == 0 {
		cfg.IBDLagSeconds = defaultIBDLagSeconds
	}
	if cfg.Now == nil {
		cfg.Now = unixNowU64
	}
	return &RewardSync{cfg: cfg}
}

// RecordTip is called after a block is connected.
func (s *RewardSync) RecordTip(height uint64, timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasTip = true
	s.tipHeight = height
	s.tipTimestamp = timestamp
	if height > s.bestKnownHeight {
		s.bestKnownHeight = height
	}
}

func (s *RewardSync) RecordBestKnownHeight(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > s.bestKnownHeight {
		s.bestKnownHeight = height
	}
}

func (s *RewardSync) BestKnownHeight() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestKnownHeight
}

func (s *RewardSync) IsInIBD() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inIBDLocked(s.cfg.Now())
}

func (s *RewardSync) inIBDLocked(nowUnix uint64) bool {
	if !s.hasTip {
		return true
	}
	if nowUnix < s.tipTimestamp {
		return true
	}
	return nowUnix-s.tipTimestamp > s.cfg.IBDLagSeconds
}

func (s *RewardSync) RewardsSynced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inIBDLocked(s.cfg.Now()) {
		return false
	}
	return s.tipHeight >= s.bestKnownHeight
}

func unixNowU64() uint64 {
	now := time.Now().Unix()
	if now <= 0 {
		return 0
	}
	return uint64(now)
}
