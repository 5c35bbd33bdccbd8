package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
	OrderStatusCompleted = "completed"
)

const (
	TicketStatusPending    = "pending"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
	TicketStatusCancelled  = "cancelled"
)

const (
	StepStatusPending   = "pending"
	StepStatusActive    = "active"
	StepStatusCompleted = "completed"
	StepStatusSkipped   = "skipped"
)

const (
	TransitionAdvance  = "advance"
	TransitionRollback = "rollback"
	TransitionComplete = "complete"
	TransitionCancel   = "cancel"
)

const (
	TrackingStatusFresh     = "fresh"
	TrackingStatusWarning   = "warning"
	TrackingStatusExpired   = "expired"
	TrackingStatusSoldOut   = "sold_out"
	TrackingStatusCollected = "collected"
)

const (
	CollectionStatusScheduled  = "scheduled"
	CollectionStatusInProgress = "in_progress"
	CollectionStatusCompleted  = "completed"
	CollectionStatusCancelled  = "cancelled"
)

const (
	InvoiceStatusUnpaid  = "unpaid"
	InvoiceStatusPartial = "partial"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// ── Group B: Classification (CHECK constrained in DB) ──

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	PriceTierStandard = "standard"
	PriceTierVolume   = "volume"
	PriceTierPremium  = "premium"
)

const (
	WorkflowTypeStandard = "standard"
	WorkflowTypeRush     = "rush"
	WorkflowTypeCustom   = "custom"
)

const (
	MerchantStatusActive    = "active"
	MerchantStatusInactive  = "inactive"
	MerchantStatusSuspended = "suspended"
	MerchantStatusVIP       = "vip"
)

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)
