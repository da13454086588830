package cwarstaking

import (
	"github.com/pkg/errors"

	"github.com/code-payments/staking-client/pkg/solana"
)

// Custom errors returned by the staking program, in declaration order.
const (
	ErrorInvalidInstruction solana.CustomError = iota
	ErrorNotRentExempt
	ErrorExpectedAmountMismatch
	ErrorAmountOverflow
	ErrorWrongAccountPassed
	ErrorSpaceNotEmpty
	ErrorAccountMismatched
	ErrorExpectedAccountTypeMismatched
	ErrorInvalidTokenProgram
	ErrorAdminDoesNotMatched
	ErrorPdaAccountDoesNotMatched
	ErrorDataSizeNotMatched
	ErrorAccountOwnerShouldBeTokenProgram
	ErrorDerivedKeyInvalid
	ErrorUserStorageAccountAlreadyInitialized
	ErrorInvalidSystemProgram
	ErrorDurationTooShort
	ErrorMintMismatched
	ErrorUserStorageAuthorityMismatched
	ErrorUserPoolMismatched
	ErrorUserBalanceNonZero
	ErrorInvalidStakingVault
	ErrorAmountMustBeGreaterThanZero
	ErrorInsufficientFundsToUnstake
	ErrorPoolOwnerMismatched
	ErrorPoolStillActive
	ErrorFunderAlreadyPresent
	ErrorMaxFundersReached
	ErrorCannotRemovePoolOwner
	ErrorFunderNotPresent
	ErrorPoolAddressAlreadyInitialized
	ErrorUserClaimRewardTimeout
)

var errorNames = []string{
	"Invalid Instruction",
	"Not Rent Exempt",
	"Expected Amount Mismatch",
	"Amount Overflow",
	"Account Not Owned By Program owner",
	"Space Not Empty",
	"Account Mismatched",
	"Expected Account Type Mismatched",
	"Invalid Token Program Id",
	"Admin Does Not Matched",
	"PDA Account Does Not Matched",
	"Data Size Not Matched",
	"Account Owner Should Be Token Program",
	"Derived Key Is Invalid",
	"User Storage Account Already Initialized",
	"Invalid System Program Id",
	"Duration Too Short",
	"Mint Mismatched",
	"User Storage Authority Mismatched",
	"User Pool Mismatched",
	"User Balance NonZero",
	"Invalid Staking Vault",
	"Amount Must Be Greater Than Zero",
	"Insufficient Funds To Unstake",
	"Pool Owner Mismatched",
	"Pool Still Active",
	"Funder Already Present",
	"Max Funders Reached",
	"Cannot Remove Pool Owner",
	"Funder Is Not Present In Funder List",
	"Pool Address Already Initialized",
	"User claim reward timeout didn't expired",
}

// ErrorName returns the program's message for a custom error code.
func ErrorName(code solana.CustomError) (string, bool) {
	if code < 0 || int(code) >= len(errorNames) {
		return "", false
	}
	return errorNames[code], true
}

// ProgramError extracts the program's custom error, if any, from a failed
// transaction.
func ProgramError(txErr *solana.TransactionError) (solana.CustomError, error) {
	if txErr == nil || txErr.InstructionError() == nil {
		return 0, errors.New("not an instruction error")
	}

	code := txErr.InstructionError().CustomError()
	if code == nil {
		return 0, errors.Errorf("not a custom error: %s", txErr.InstructionError().ErrorKey())
	}
	return *code, nil
}
