package orders

import (
	"fmt"
	"slices"

	"storefront/internal/models"
	"storefront/internal/notify"
)

// InventoryEffect is the stock adjustment a transition triggers.
type InventoryEffect int

const (
	InventoryNone InventoryEffect = iota
	// InventoryRestock returns every line item to stock.
	InventoryRestock
	// InventoryDeduct takes every line item out of stock again, floored at zero.
	InventoryDeduct
)

func (e InventoryEffect) String() string {
	switch e {
	case InventoryRestock:
		return "restock"
	case InventoryDeduct:
		return "deduct"
	default:
		return "none"
	}
}

// Transition is the resolved plan for moving an order between two statuses.
type Transition struct {
	From         models.OrderStatus
	To           models.OrderStatus
	Inventory    InventoryEffect
	Notification notify.Kind
}

// strictTransitions is enforced only when strict mode is on. Setting a status
// to itself is always allowed.
var strictTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:       {models.OrderStatusProcessing, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusDelivered:  {models.OrderStatusRefunded, models.OrderStatusCancelled},
	models.OrderStatusCancelled:  {models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusProcessing},
	models.OrderStatusRefunded:   {},
}

// inventoryRules are keyed by (from, to). Leaving cancelled deducts, handled in
// InventoryEffectFor.
//
// Cancelling or refunding from anything but delivered does not restock, yet
// leaving cancelled always deducts. Stock for orders cancelled before delivery
// therefore ends up lower after an uncancel.
var inventoryRules = []struct {
	from, to models.OrderStatus
	effect   InventoryEffect
}{
	{models.OrderStatusDelivered, models.OrderStatusCancelled, InventoryRestock},
	{models.OrderStatusDelivered, models.OrderStatusRefunded, InventoryRestock},
}

var notificationsByStatus = map[models.OrderStatus]notify.Kind{
	models.OrderStatusShipped:   notify.KindOrderShipped,
	models.OrderStatusDelivered: notify.KindOrderDelivered,
	models.OrderStatusCancelled: notify.KindOrderCancelled,
	models.OrderStatusRefunded:  notify.KindOrderCancelled,
}

// StateMachine validates admin status changes and resolves their side effects.
type StateMachine struct {
	strict bool
}

// NewStateMachine returns a machine that accepts any status change when strict
// is false, and only strictTransitions otherwise.
func NewStateMachine(strict bool) *StateMachine {
	return &StateMachine{strict: strict}
}

func (m *StateMachine) Strict() bool { return m.strict }

func (m *StateMachine) Allowed(from, to models.OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if !m.strict || from == to {
		return true
	}
	return slices.Contains(strictTransitions[from], to)
}

// Plan validates from → to and returns the side effects to run.
func (m *StateMachine) Plan(from, to models.OrderStatus) (Transition, error) {
	if !to.Valid() {
		return Transition{}, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !m.Allowed(from, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return Transition{
		From:         from,
		To:           to,
		Inventory:    InventoryEffectFor(from, to),
		Notification: notificationsByStatus[to],
	}, nil
}

// InventoryEffectFor applies the stock rules for a status change.
func InventoryEffectFor(from, to models.OrderStatus) InventoryEffect {
	if from == to {
		return InventoryNone
	}
	for _, rule := range inventoryRules {
		if rule.from == from && rule.to == to {
			return rule.effect
		}
	}
	if from == models.OrderStatusCancelled {
		return InventoryDeduct
	}
	return InventoryNone
}
