package consensus

const (
	TX_VERSION_V1 uint32 = 1

	TX_COINBASE_PREVOUT_VOUT uint32 = ^uint32(0)

	MAX_TX_INPUTS        = 1024
	MAX_TX_OUTPUTS       = 4096
	MAX_SCRIPT_SIG_BYTES = 32
	MAX_COVENANT_DATA    = 65536
	MAX_WITNESS_ITEMS    = 1024
	MAX_WITNESS_BYTES    = 100_000
	MAX_DA_PAYLOAD_BYTES = 65536

	COV_TYPE_P2PK   uint16 = 0x0000
	COV_TYPE_ANCHOR uint16 = 0x0002

	// Smallest-unit supply parameters used by BlockSubsidy.
	BASE_UNITS_PER_COIN     uint64 = 100_000_000
	MINEABLE_CAP            uint64 = 4_900_000_000 * BASE_UNITS_PER_COIN
	EMISSION_SPEED_FACTOR          = 20
	TAIL_EMISSION_PER_BLOCK uint64 = 19_025_875

	// PAYOUT_TOLERANCE is the exclusive bound on |observed - expected| for a
	// reward payment to count as delivered.
	PAYOUT_TOLERANCE uint64 = 1000
)
