package enum

// ── Group A: State machines ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	PagerStatusAvailable = "AVAILABLE"
	PagerStatusAssigned  = "ASSIGNED"
	PagerStatusActive    = "ACTIVE"
)

// ── Group B: Access control ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
	UserRoleChef    = "CHEF"
)

// ── Group C: Configurable labels ──

const (
	StationGrill    = "GRILL"
	StationStove    = "STOVE"
	StationBeverage = "BEVERAGE"
	StationDessert  = "DESSERT"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTelebirr = "TELEBIRR"
	PaymentMethodCBEBirr  = "CBE_BIRR"
	PaymentMethodCard     = "CARD"
)
