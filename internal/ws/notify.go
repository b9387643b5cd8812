package ws

import (
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/kitchen"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

const EventKitchenUpdated = "kitchen.updated"

// OrderListener forwards order store events to the order's branch room.
func (h *Hub) OrderListener() order.Listener {
	return func(e order.Event) {
		h.Broadcast(e.Order.Branch, e.Type, e.Order)
	}
}

// KitchenListener forwards kitchen board changes to the order's branch room.
func (h *Hub) KitchenListener() func(kitchen.Order) {
	return func(o kitchen.Order) {
		h.Broadcast(o.Branch, EventKitchenUpdated, o)
	}
}
