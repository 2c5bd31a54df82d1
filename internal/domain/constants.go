package domain

const (
	RoleArtist = "ARTIST"
	RoleAdmin  = "ADMIN"
)

const (
	EarningTypeSale       = "SALE"
	EarningTypeCommission = "COMMISSION"
	EarningTypeBonus      = "BONUS"
	EarningTypeRefund     = "REFUND"
)

const (
	EarningStatusPending   = "PENDING"
	EarningStatusAvailable = "AVAILABLE"
	EarningStatusWithdrawn = "WITHDRAWN"
	EarningStatusOnHold    = "ON_HOLD" // reserved for disputes
)

const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusApproved  = "APPROVED"
	WithdrawalStatusRejected  = "REJECTED"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusFailed    = "FAILED"
)

const (
	TxStatusPending    = "PENDING"
	TxStatusProcessing = "PROCESSING"
	TxStatusCompleted  = "COMPLETED"
	TxStatusFailed     = "FAILED"
	TxStatusCancelled  = "CANCELLED"
)

const (
	TxTypeMpesaTransfer = "MPESA_TRANSFER"
	TxTypeBankTransfer  = "BANK_TRANSFER"
	TxTypeManual        = "MANUAL"
)

// Ledger defaults. Minimum withdrawal and hold days can be overridden via
// system settings; the fee rate is fixed.
const (
	MinimumWithdrawalCents int64   = 100000 // KES 1000
	PlatformFeeRate        float64 = 0.05
	WithdrawalHoldDays             = 7
)

// System setting keys.
const (
	SettingMinimumWithdrawal  = "minimum_withdrawal_cents"
	SettingWithdrawalHoldDays = "withdrawal_hold_days"
)

// Notification types emitted by the withdrawal flow.
const (
	NotifWithdrawalApproved  = "WITHDRAWAL_APPROVED"
	NotifWithdrawalRejected  = "WITHDRAWAL_REJECTED"
	NotifWithdrawalCompleted = "WITHDRAWAL_COMPLETED"
	NotifWithdrawalFailed    = "WITHDRAWAL_FAILED"
	NotifEarningRecorded     = "EARNING_RECORDED"
)
