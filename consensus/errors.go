package consensus

import "fmt"

type ErrorCode string

const (
	TX_ERR_PARSE ErrorCode = "TX_ERR_PARSE"

	BLOCK_ERR_COINBASE_INVALID    ErrorCode = "BLOCK_ERR_COINBASE_INVALID"
	BLOCK_ERR_SUBSIDY_EXCEEDED    ErrorCode = "BLOCK_ERR_SUBSIDY_EXCEEDED"
	BLOCK_ERR_REWARD_LIST_INVALID ErrorCode = "BLOCK_ERR_REWARD_LIST_INVALID"

	REWARD_ERR_PARAMS_INVALID ErrorCode = "REWARD_ERR_PARAMS_INVALID"
	REWARD_ERR_ROUND_INVALID  ErrorCode = "REWARD_ERR_ROUND_INVALID"
)

type TxError struct {
	Code ErrorCode
	Msg  string
}

func (e *TxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func txerr(code ErrorCode, msg string) error {
	return &TxError{Code: code, Msg: msg}
}
