package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	OrderItemStatusPending   = "PENDING"
	OrderItemStatusPreparing = "PREPARING"
	OrderItemStatusReady     = "READY"
	OrderItemStatusServed    = "SERVED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodCard   = "CARD"
	PaymentMethodMobile = "MOBILE"
)

const (
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityRush   = "RUSH"
)

// ── Group B: Configurable labels (no DB constraint) ──

// Access levels are ordered: HIDDEN < READONLY < EDIT < FULL.
const (
	AccessHidden   = "HIDDEN"
	AccessReadOnly = "READONLY"
	AccessEdit     = "EDIT"
	AccessFull     = "FULL"
)

const (
	PageDashboard    = "dashboard"
	PageMenu         = "menu"
	PageCategories   = "categories"
	PagePOS          = "pos"
	PageOrders       = "orders"
	PageKitchen      = "kitchen"
	PageEmployees    = "employees"
	PageReservations = "reservations"
	PageReports      = "reports"
	PageRoles        = "roles"
	PageSettings     = "settings"
)

// Pages lists every page id in display order.
var Pages = []string{
	PageDashboard, PageMenu, PageCategories, PagePOS, PageOrders, PageKitchen,
	PageEmployees, PageReservations, PageReports, PageRoles, PageSettings,
}

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleChef    = "chef"
	RoleWaiter  = "waiter"
)

func IsValidOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile:
		return true
	}
	return false
}

func IsValidPriority(s string) bool {
	switch s {
	case PriorityNormal, PriorityHigh, PriorityRush:
		return true
	}
	return false
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func IsValidPage(s string) bool {
	for _, p := range Pages {
		if p == s {
			return true
		}
	}
	return false
}

// AccessRank returns the ordinal of an access level, or -1 if unknown.
func AccessRank(level string) int {
	switch level {
	case AccessHidden:
		return 0
	case AccessReadOnly:
		return 1
	case AccessEdit:
		return 2
	case AccessFull:
		return 3
	}
	return -1
}
