package consensus

import (
	"fmt"
	"math"
)

// RewardActivation is the external signal that switches reward payouts on or
// off per height.
type RewardActivation interface {
	RewardsEnabled(height uint64) bool
}

// SporkCeiling enables rewards up to and including the given height. Operators
// move it to pause payouts network wide.
type SporkCeiling uint64

func (s SporkCeiling) RewardsEnabled(height uint64) bool {
	return height <= uint64(s)
}

const AlwaysEnabled = SporkCeiling(math.MaxUint64)

const (
	SIGNAL_WINDOW    uint64 = 2016
	SIGNAL_THRESHOLD uint32 = 1815
)

type FeatureBitState string

const (
	FEATUREBIT_DEFINED   FeatureBitState = "DEFINED"
	FEATUREBIT_STARTED   FeatureBitState = "STARTED"
	FEATUREBIT_LOCKED_IN FeatureBitState = "LOCKED_IN"
	FEATUREBIT_ACTIVE    FeatureBitState = "ACTIVE"
	FEATUREBIT_FAILED    FeatureBitState = "FAILED"
)

type FeatureBitDeployment struct {
	Name          string
	Bit           uint8
	StartHeight   uint64
	TimeoutHeight uint64
}

func (d FeatureBitDeployment) Validate() error {
	if d.Bit > 31 {
		return fmt.Errorf("featurebits: bit out of range: %d", d.Bit)
	}
	if d.Name == "" {
		return fmt.Errorf("featurebits: name required")
	}
	if d.TimeoutHeight < d.StartHeight {
		return fmt.Errorf("featurebits: timeout_height < start_height")
	}
	return nil
}

func nextFeatureBitState(prev FeatureBitState, boundary uint64, signals uint32, d FeatureBitDeployment) FeatureBitState {
	switch prev {
	case FEATUREBIT_DEFINED:
		if boundary >= d.StartHeight {
			return FEATUREBIT_STARTED
		}
	case FEATUREBIT_STARTED:
		if signals >= SIGNAL_THRESHOLD {
			return FEATUREBIT_LOCKED_IN
		}
		if boundary >= d.TimeoutHeight {
			return FEATUREBIT_FAILED
		}
	case FEATUREBIT_LOCKED_IN:
		return FEATUREBIT_ACTIVE
	}
	return prev
}

// FeatureBitStateAt walks the deployment state machine over every signal
// window up to height. windowSignalCounts[i] is the number of signalling
// blocks in window i.
func FeatureBitStateAt(d FeatureBitDeployment, height uint64, windowSignalCounts []uint32) (FeatureBitState, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	target := height / SIGNAL_WINDOW
	if uint64(len(windowSignalCounts)) < target {
		return "", fmt.Errorf("featurebits: need %d window signal counts, got %d", target, len(windowSignalCounts))
	}
	state := FEATUREBIT_DEFINED
	for i := uint64(0); i <= target; i++ {
		var signals uint32
		if i > 0 {
			signals = windowSignalCounts[i-1]
		}
		state = nextFeatureBitState(state, i*SIGNAL_WINDOW, signals, d)
	}
	return state, nil
}

// FeatureBitActivation enables rewards once the deployment is ACTIVE. Missing
// window counts read as not active.
type FeatureBitActivation struct {
	Deployment         FeatureBitDeployment
	WindowSignalCounts []uint32
}

func (f FeatureBitActivation) RewardsEnabled(height uint64) bool {
	state, err := FeatureBitStateAt(f.Deployment, height, f.WindowSignalCounts)
	return err == nil && state == FEATUREBIT_ACTIVE
}
