package orders

import "github.com/chocandle/cho-candle-backend/pkg/enums"

// Actor is who drives a status transition.
type Actor string

const (
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
	// ActorSystem is the scheduler expiring unpaid orders.
	ActorSystem Actor = "system"
)

type transition struct {
	from  enums.OrderStatus
	to    enums.OrderStatus
	actor Actor
}

var transitions = map[transition]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusPreparing, ActorAdmin}:            {},
	{enums.OrderStatusPreparing, enums.OrderStatusShipped, ActorAdmin}:            {},
	{enums.OrderStatusShipped, enums.OrderStatusDelivered, ActorAdmin}:            {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled, ActorCustomer}:         {},
	{enums.OrderStatusPreparing, enums.OrderStatusCancelled, ActorCustomer}:       {},
	{enums.OrderStatusDelivered, enums.OrderStatusWellReceived, ActorCustomer}:    {},
	{enums.OrderStatusDelivered, enums.OrderStatusLost, ActorCustomer}:            {},
	{enums.OrderStatusDelivered, enums.OrderStatusRefundRequested, ActorCustomer}: {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled, ActorSystem}:           {},
}

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to enums.OrderStatus, actor Actor) bool {
	_, ok := transitions[transition{from: from, to: to, actor: actor}]
	return ok
}

// NextAdminStatus is the single forward step an admin can take, if any.
func NextAdminStatus(from enums.OrderStatus) (enums.OrderStatus, bool) {
	for t := range transitions {
		if t.actor == ActorAdmin && t.from == from {
			return t.to, true
		}
	}
	return "", false
}

// Group buckets orders for the customer orders page.
type Group string

const (
	GroupActive   Group = "active"
	GroupFinished Group = "finished"
)

// GroupOf returns finished for terminal statuses and active otherwise.
func GroupOf(status enums.OrderStatus) Group {
	if status.IsTerminal() {
		return GroupFinished
	}
	return GroupActive
}

// ParseGroup accepts "", "active" or "finished"; empty means no grouping.
func ParseGroup(value string) (Group, bool) {
	switch Group(value) {
	case "", GroupActive, GroupFinished:
		return Group(value), true
	default:
		return "", false
	}
}
