package types

// MembershipStatus is the lifecycle status of a membership
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusTrialing  MembershipStatus = "trialing"
	MembershipStatusCancelled MembershipStatus = "cancelled"
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusOnHold    MembershipStatus = "on_hold"
)

// PaymentStatus is the lifecycle status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusAbandoned PaymentStatus = "abandoned"
	PaymentStatusFailed    PaymentStatus = "failed"
)
