package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeNodeSyncing:              "RPC node is still syncing",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeGasPriceTooHigh:          "Gas price above configured maximum",

	// Transaction lifecycle errors
	CodeTxSubmitFailed: "Failed to submit transaction",
	CodeTxTimeout:      "Transaction not confirmed in time (it may still be mined)",
	CodeTxReverted:     "Transaction was mined but reverted",

	// Liquidity errors
	CodePairNotFound:          "Liquidity pair does not exist",
	CodePairCreationFailed:    "Pair creation failed",
	CodeApprovalFailed:        "Token approval failed",
	CodeInsufficientBalance:   "Balance below required amount",
	CodeNoLiquidityPosition:   "No liquidity-position tokens held",
	CodeInvalidRatioSpec:      "Invalid liquidity ratio specification",
	CodeDecimalsLookupFailed:  "Failed to read token decimals",
	CodeSnapshotPersistFailed: "Failed to persist balance snapshot",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
