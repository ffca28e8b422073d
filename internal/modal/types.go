package modal

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "Pending"
	SubmissionApproved SubmissionStatus = "Approved"
	SubmissionRejected SubmissionStatus = "Rejected"
)

type LedgerType string

const (
	LedgerTaskReward    LedgerType = "task_reward"
	LedgerReferralBonus LedgerType = "referral_bonus"
	LedgerWithdrawal    LedgerType = "withdrawal"
)

type LedgerStatus string

const (
	LedgerCompleted LedgerStatus = "Completed"
)

type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "Requested"
	WithdrawalPaid      WithdrawalStatus = "Paid"
	WithdrawalRejected  WithdrawalStatus = "Rejected"
)

type PayoutStatus string

const (
	PayoutSent   PayoutStatus = "SENT"
	PayoutFailed PayoutStatus = "FAILED"
)
