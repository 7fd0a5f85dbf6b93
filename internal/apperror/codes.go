package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Liquidity-operation error codes
const (
	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeNodeSyncing              Code = "NODE_SYNCING"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeGasPriceTooHigh          Code = "GAS_PRICE_TOO_HIGH"

	// Transaction lifecycle errors
	CodeTxSubmitFailed Code = "TX_SUBMIT_FAILED"
	// CodeTxTimeout is ambiguous: the wait gave up but the transaction may
	// still be mined later.
	CodeTxTimeout  Code = "TX_TIMEOUT"
	CodeTxReverted Code = "TX_REVERTED"

	// Liquidity errors
	CodePairNotFound          Code = "PAIR_NOT_FOUND"
	CodePairCreationFailed    Code = "PAIR_CREATION_FAILED"
	CodeApprovalFailed        Code = "APPROVAL_FAILED"
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"
	CodeNoLiquidityPosition   Code = "NO_LIQUIDITY_POSITION"
	CodeInvalidRatioSpec      Code = "INVALID_RATIO_SPEC"
	CodeDecimalsLookupFailed  Code = "DECIMALS_LOOKUP_FAILED"
	CodeSnapshotPersistFailed Code = "SNAPSHOT_PERSIST_FAILED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
