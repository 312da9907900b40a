package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"

	"smartrewards.dev/node/consensus"
	"smartrewards.dev/node/node"
	"smartrewards.dev/node/node/store"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "version":
		_, _ = fmt.Fprintf(stdout, "reward-node %s\n", version)
		return 0
	case "schedule":
		return cmdSchedule(args[1:], stdout, stderr)
	case "import-round":
		return cmdImportRound(args[1:], stdout, stderr)
	case "payments":
		return cmdPayments(args[1:], stdout, stderr)
	case "validate":
		return cmdValidate(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: reward-node <version|schedule|import-round|payments|validate> [flags]")
}

// nodeFlags are shared by the subcommands that open the round ledger.
// Explicit flags override values loaded from --config.
type nodeFlags struct {
	config      string
	network     string
	datadir     string
	logLevel    string
	sporkHeight uint64
	metrics     bool
}

func bindNodeFlags(fs *flag.FlagSet) *nodeFlags {
	defaults := node.DefaultConfig()
	f := &nodeFlags{}
	fs.StringVar(&f.config, "config", "", "path to JSON config file")
	fs.StringVar(&f.network, "network", defaults.Network, "network name (devnet/testnet/mainnet)")
	fs.StringVar(&f.datadir, "datadir", defaults.DataDir, "node data directory")
	fs.StringVar(&f.logLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	fs.Uint64Var(&f.sporkHeight, "rewards-spork-height", 0, "last height with enforced reward payouts (0 = no ceiling)")
	fs.BoolVar(&f.metrics, "metrics", false, "print reward metrics after the command")
	return f
}

func (f *nodeFlags) resolve(fs *flag.FlagSet) (node.Config, error) {
	cfg := node.DefaultConfig()
	if f.config != "" {
		loaded, err := node.LoadConfigFile(f.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "network":
			cfg.Network = f.network
		case "datadir":
			cfg.DataDir = f.datadir
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "rewards-spork-height":
			cfg.RewardsSporkHeight = f.sporkHeight
		}
	})
	cfg.Network = strings.ToLower(strings.TrimSpace(cfg.Network))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := node.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// rewardNode is the wiring every ledger-backed subcommand needs.
type rewardNode struct {
	db       *store.DB
	ledger   *node.RoundLedger
	payments *node.RewardPayments
	registry *prometheus.Registry
	log      zerolog.Logger
}

func openRewardNode(cfg node.Config, stderr io.Writer) (*rewardNode, error) {
	log, err := node.NewLogger(cfg.LogLevel, stderr)
	if err != nil {
		return nil, err
	}
	params, err := consensus.RewardParamsForNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.DataDir, cfg.Network)
	if err != nil {
		return nil, err
	}
	ledger, err := node.NewRoundLedger(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	registry := prometheus.NewRegistry()
	metrics, err := node.NewRewardMetrics(registry)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	payments, err := node.NewRewardPayments(node.RewardPaymentsConfig{
		Params:     params,
		Activation: cfg.RewardActivation(),
		Rounds:     ledger,
		Metrics:    metrics,
		Logger:     log,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &rewardNode{db: db, ledger: ledger, payments: payments, registry: registry, log: log}, nil
}

func (n *rewardNode) Close() error { return n.db.Close() }

func (n *rewardNode) writeMetrics(w io.Writer) error {
	families, err := n.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func cmdSchedule(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	network := fs.String("network", "devnet", "network name (devnet/testnet/mainnet)")
	var round consensus.RewardRound
	fs.Uint64Var(&round.Number, "round", 1, "round number")
	fs.Uint64Var(&round.EndBlockHeight, "end-height", 0, "round end block height")
	fs.Uint64Var(&round.EligibleEntries, "eligible", 0, "eligible entries")
	fs.Uint64Var(&round.DisqualifiedEntries, "disqualified", 0, "disqualified entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	params, err := consensus.RewardParamsForNetwork(*network)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid network: %v\n", err)
		return 2
	}

	windows, res := consensus.PayoutSchedule(params, round)
	_, _ = fmt.Fprintf(stdout, "round=%d result=%s windows=%d\n", round.Number, res, len(windows))
	for _, w := range windows {
		_, _ = fmt.Fprintf(stdout, "payout: ordinal=%d/%d height=%d payees=[%d,%d) count=%d\n", w.Ordinal, w.BlocksNeeded, w.Height, w.Start, w.End, w.Count())
	}
	if res == consensus.PayoutDatabaseError {
		return 1
	}
	return 0
}

type roundDocument struct {
	Round struct {
		Number              uint64 `json:"number"`
		EndBlockHeight      uint64 `json:"end_block_height"`
		EligibleEntries     uint64 `json:"eligible_entries"`
		DisqualifiedEntries uint64 `json:"disqualified_entries"`
	} `json:"round"`
	Payees []struct {
		CovenantType    uint16 `json:"covenant_type"`
		CovenantDataHex string `json:"covenant_data_hex"`
		Reward          uint64 `json:"reward"`
	} `json:"payees"`
}

func readRoundDocument(path string) (consensus.RewardRound, consensus.RewardPayeeList, error) {
	raw, err := node.ReadFileByPath(path, node.MaxRoundFileBytes)
	if err != nil {
		return consensus.RewardRound{}, nil, fmt.Errorf("read round file: %w", err)
	}
	var doc roundDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return consensus.RewardRound{}, nil, fmt.Errorf("decode round file: %w", err)
	}
	round := consensus.RewardRound{
		Number:              doc.Round.Number,
		EndBlockHeight:      doc.Round.EndBlockHeight,
		EligibleEntries:     doc.Round.EligibleEntries,
		DisqualifiedEntries: doc.Round.DisqualifiedEntries,
	}
	payees := make(consensus.RewardPayeeList, 0, len(doc.Payees))
	for i, p := range doc.Payees {
		data, err := hex.DecodeString(strings.TrimSpace(p.CovenantDataHex))
		if err != nil {
			return round, nil, fmt.Errorf("payee %d: covenant_data_hex: %w", i, err)
		}
		payees = append(payees, consensus.RewardPayee{
			Destination: consensus.Destination{CovenantType: p.CovenantType, CovenantData: data},
			Reward:      p.Reward,
		})
	}
	return round, payees, nil
}

func cmdImportRound(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("import-round", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nf := bindNodeFlags(fs)
	file := fs.String("file", "", "round JSON document")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		_, _ = fmt.Fprintln(stderr, "--file is required")
		return 2
	}
	cfg, err := nf.resolve(fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	round, payees, err := readRoundDocument(*file)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	n, err := openRewardNode(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open failed: %v\n", err)
		return 1
	}
	defer func() { _ = n.Close() }()

	if err := n.ledger.CloseRound(round, payees); err != nil {
		_, _ = fmt.Fprintf(stderr, "import failed: %v\n", err)
		return 1
	}
	n.log.Info().Uint64("round", round.Number).Int("payees", len(payees)).Msg("reward round closed")
	_, _ = fmt.Fprintf(stdout, "imported: round=%d payees=%d payees_sha3=%s\n", round.Number, len(payees), n.db.Manifest().LatestPayeesSHA3)
	return 0
}

func cmdPayments(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("payments", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nf := bindNodeFlags(fs)
	height := fs.Uint64("height", 0, "block height")
	blockTime := fs.Uint64("block-time", 0, "block timestamp")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := nf.resolve(fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	n, err := openRewardNode(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open failed: %v\n", err)
		return 1
	}
	defer func() { _ = n.Close() }()

	payees, res := n.payments.PaymentsForBlock(*height, *blockTime)
	_, _ = fmt.Fprintf(stdout, "height=%d result=%s payees=%d\n", *height, res, len(payees))
	for _, p := range payees {
		_, _ = fmt.Fprintf(stdout, "payee: %s\n", p)
	}
	return n.finish(nf, stdout, stderr, res != consensus.PayoutDatabaseError)
}

func cmdValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	nf := bindNodeFlags(fs)
	height := fs.Uint64("height", 0, "block height")
	blockTime := fs.Uint64("block-time", 0, "block timestamp")
	coinbaseHex := fs.String("coinbase-hex", "", "canonical coinbase transaction hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := nf.resolve(fs)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	raw, err := hex.DecodeString(strings.TrimSpace(*coinbaseHex))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "bad coinbase hex: %v\n", err)
		return 2
	}
	coinbase, err := consensus.ParseTxBytes(raw)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "bad coinbase: %v\n", err)
		return 2
	}

	n, err := openRewardNode(cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open failed: %v\n", err)
		return 1
	}
	defer func() { _ = n.Close() }()

	block := &consensus.Block{
		Header: consensus.BlockHeader{Timestamp: *blockTime},
		Txs:    []*consensus.Tx{coinbase},
	}
	v := n.payments.ValidateDetailed(block, *height)
	_, _ = fmt.Fprintf(stdout, "height=%d result=%s verified=%d expected=%d missing=%d\n", *height, v.Result, v.Verified, len(v.Expected), len(v.Missing))
	for _, p := range v.Missing {
		_, _ = fmt.Fprintf(stdout, "missing: %s\n", p)
	}
	return n.finish(nf, stdout, stderr, v.Result == consensus.PayoutValid)
}

func (n *rewardNode) finish(nf *nodeFlags, stdout, stderr io.Writer, ok bool) int {
	if nf.metrics {
		if err := n.writeMetrics(stdout); err != nil {
			_, _ = fmt.Fprintf(stderr, "metrics: %v\n", err)
			return 1
		}
	}
	if !ok {
		return 1
	}
	return 0
}
