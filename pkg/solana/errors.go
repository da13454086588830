package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// TransactionErrorKey names a transaction level failure reported by the RPC.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

// The subset of keys a staking client is expected to react to.
const (
	TransactionErrorAccountInUse            TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
)

// InstructionErrorKey names the failure of a single instruction.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
)

// CustomError is a program specific error code.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %#x", int(c))
}

// InstructionError is the failure of the instruction at Index.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("instruction %d failed: %v", i.Index, i.Err)
}

func (i InstructionError) Unwrap() error {
	return i.Err
}

// ErrorKey returns InstructionErrorCustom for program errors and the builtin
// error's name otherwise.
func (i InstructionError) ErrorKey() InstructionErrorKey {
	switch {
	case i.Err == nil:
		return ""
	case i.CustomError() != nil:
		return InstructionErrorCustom
	default:
		return InstructionErrorKey(i.Err.Error())
	}
}

func (i InstructionError) CustomError() *CustomError {
	var ce CustomError
	if errors.As(i.Err, &ce) {
		return &ce
	}
	return nil
}

// TransactionError is a decoded "err" field from the RPC.
type TransactionError struct {
	key         TransactionErrorKey
	instruction *InstructionError
}

func (t TransactionError) Error() string {
	if t.instruction != nil {
		return t.instruction.Error()
	}
	return string(t.key)
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instruction
}

// ParseTransactionError decodes the "err" value the RPC attaches to failed
// transactions. The value is either a bare key or a single entry object whose
// value carries details, as with {"InstructionError": [index, detail]}.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	if raw == nil {
		return nil, nil
	}

	key, value, err := parseErrorEntry(raw)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction error")
	}

	txErr := &TransactionError{key: TransactionErrorKey(key)}
	if txErr.key != TransactionErrorInstructionError {
		return txErr, nil
	}

	txErr.instruction, err = parseInstructionError(value)
	if err != nil {
		return txErr, errors.Wrap(err, "invalid instruction error")
	}
	return txErr, nil
}

func parseInstructionError(raw interface{}) (*InstructionError, error) {
	tuple, ok := raw.([]interface{})
	if !ok || len(tuple) != 2 {
		return nil, errors.Errorf("expected [index, error] tuple, got %v", raw)
	}

	index, err := parseJSONNumber(tuple[0])
	if err != nil {
		return nil, err
	}

	key, value, err := parseErrorEntry(tuple[1])
	if err != nil {
		return nil, err
	}

	if InstructionErrorKey(key) != InstructionErrorCustom {
		return &InstructionError{Index: index, Err: errors.New(key)}, nil
	}

	code, err := parseJSONNumber(value)
	if err != nil {
		return nil, errors.Wrap(err, "invalid custom error code")
	}
	return &InstructionError{Index: index, Err: CustomError(code)}, nil
}

// parseErrorEntry splits an error value into its key and optional detail.
func parseErrorEntry(raw interface{}) (string, interface{}, error) {
	switch t := raw.(type) {
	case string:
		return t, nil, nil
	case map[string]interface{}:
		if len(t) != 1 {
			return "", nil, errors.Errorf("expected a single entry, got %d", len(t))
		}
		for k, v := range t {
			return k, v, nil
		}
	}
	return "", nil, errors.Errorf("unexpected error type %T", raw)
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non integer value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	}
	return 0, errors.Errorf("non numeric value: %v", v)
}
