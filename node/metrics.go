package node

import (
	"github.com/prometheus/client_golang/prometheus"

	"smartrewards.dev/node/consensus"
)

// RewardMetrics counts selector and validator outcomes. A nil *RewardMetrics
// records nothing.
type RewardMetrics struct {
	selections      *prometheus.CounterVec
	validations     *prometheus.CounterVec
	missingPayments prometheus.Counter
	filledOutputs   prometheus.Counter
}

// NewRewardMetrics creates the reward collectors and registers them on reg
// when reg is non-nil.
func NewRewardMetrics(reg prometheus.Registerer) (*RewardMetrics, error) {
	m := &RewardMetrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartrewards_selections_total",
				Help: "Number of payout window selections by result.",
			},
			[]string{"result"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartrewards_validations_total",
				Help: "Number of block reward validations by result.",
			},
			[]string{"result"},
		),
		missingPayments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smartrewards_missing_payments_total",
				Help: "Number of expected reward payments absent from validated coinbases.",
			},
		),
		filledOutputs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smartrewards_filled_outputs_total",
				Help: "Number of reward outputs appended to assembled coinbases.",
			},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.selections, m.validations, m.missingPayments, m.filledOutputs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RewardMetrics) observeSelection(res consensus.PayoutResult) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(res.String()).Inc()
}

func (m *RewardMetrics) observeValidation(res consensus.PayoutResult, missing int) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(res.String()).Inc()
	if missing > 0 {
		m.missingPayments.Add(float64(missing))
	}
}

func (m *RewardMetrics) observeFilled(n int) {
	if m == nil || n == 0 {
		return
	}
	m.filledOutputs.Add(float64(n))
}
