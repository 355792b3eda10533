package model

import "time"

// OperationType tags a multi-step transaction flow.
type OperationType string

const (
	OpSwap            OperationType = "swap"
	OpSupply          OperationType = "supply"
	OpWithdraw        OperationType = "withdraw"
	OpBorrow          OperationType = "borrow"
	OpRepay           OperationType = "repay"
	OpFaucetClaim     OperationType = "faucet_claim"
	OpAddLiquidity    OperationType = "add_liquidity"
	OpRemoveLiquidity OperationType = "remove_liquidity"
)

// StepRole identifies a step's job within a flow.
type StepRole string

const (
	RoleApprove  StepRole = "approve"
	RoleApproveA StepRole = "approveA"
	RoleApproveB StepRole = "approveB"
	RoleExecute  StepRole = "execute"
)

// IsApproval reports whether the role is an ERC20 approval.
func (r StepRole) IsApproval() bool {
	return r == RoleApprove || r == RoleApproveA || r == RoleApproveB
}

// StepStatus is the lifecycle state of one step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepError      StepStatus = "error"
)

// Step is one entry in a flow's ordered step sequence.
type Step struct {
	Role   StepRole   `json:"role"`
	Label  string     `json:"label"`
	Status StepStatus `json:"status"`
	TxHash string     `json:"tx_hash,omitempty"`
}

// StepEventKind classifies flow lifecycle events.
type StepEventKind string

const (
	EventFlowStarted   StepEventKind = "flow_started"
	EventStepStarted   StepEventKind = "step_started"
	EventHashKnown     StepEventKind = "hash_known"
	EventStepCompleted StepEventKind = "step_completed"
	EventFlowSucceeded StepEventKind = "flow_succeeded"
	EventFlowFailed    StepEventKind = "flow_failed"
)

// StepEvent is published on the bus for every flow state change.
type StepEvent struct {
	Kind       StepEventKind `json:"kind"`
	Operation  OperationType `json:"operation"`
	FlowID     string        `json:"flow_id"`
	Step       StepRole      `json:"step,omitempty"`
	TxHash     string        `json:"tx_hash,omitempty"`
	Error      string        `json:"error,omitempty"`
	FromAmount string        `json:"from_amount,omitempty"`
	ToAmount   string        `json:"to_amount,omitempty"`
	At         time.Time     `json:"at"`
}
