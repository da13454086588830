package solana

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, s string) interface{} {
	d := json.NewDecoder(strings.NewReader(s))
	d.UseNumber()

	var raw interface{}
	require.NoError(t, d.Decode(&raw))
	return raw
}

func TestParseTransactionError_Custom(t *testing.T) {
	txErr, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[2,{"Custom":25}]}`))
	require.NoError(t, err)

	assert.Equal(t, TransactionErrorInstructionError, txErr.ErrorKey())
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 2, txErr.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, txErr.InstructionError().ErrorKey())
	require.NotNil(t, txErr.InstructionError().CustomError())
	assert.Equal(t, CustomError(25), *txErr.InstructionError().CustomError())
	assert.Equal(t, "instruction 2 failed: custom program error: 0x19", txErr.Error())

	var code CustomError
	require.True(t, errors.As(*txErr.InstructionError(), &code))
	assert.EqualValues(t, 25, code)
}

func TestParseTransactionError_Builtin(t *testing.T) {
	txErr, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, InstructionErrorInvalidArgument, txErr.InstructionError().ErrorKey())
	assert.Nil(t, txErr.InstructionError().CustomError())

	txErr, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, txErr.ErrorKey())
	assert.Nil(t, txErr.InstructionError())
	assert.Equal(t, "BlockhashNotFound", txErr.Error())

	// Float encoded indexes, as produced by a plain json.Unmarshal
	txErr, err = ParseTransactionError(map[string]interface{}{
		"InstructionError": []interface{}{float64(1), map[string]interface{}{"Custom": float64(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, CustomError(3), *txErr.InstructionError().CustomError())
}

func TestParseTransactionError_Invalid(t *testing.T) {
	txErr, err := ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, txErr)

	for _, raw := range []string{
		`{"AccountInUse":null,"AccountNotFound":null}`,
		`{"InstructionError":[0]}`,
		`{"InstructionError":["zero","InvalidArgument"]}`,
		`{"InstructionError":[0,{"Custom":"x"}]}`,
		`42`,
	} {
		_, err := ParseTransactionError(decodeRaw(t, raw))
		assert.Error(t, err, raw)
	}
}

func TestParseJSONNumber(t *testing.T) {
	for _, v := range []interface{}{"7", 7.0, json.Number("7")} {
		n, err := parseJSONNumber(v)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
