package enum

// ── Menu (document fields written by the admin panel) ──

const (
	CategoryAppetizers = "appetizers"
	CategoryMains      = "mains"
	CategoryDesserts   = "desserts"
	CategoryBeverages  = "beverages"
)

const (
	MenuStatusAvailable   = "available"
	MenuStatusUnavailable = "unavailable"
)

// ── Orders ──

const (
	PaymentTypeFull    = "full"
	PaymentTypePartial = "partial"
)

const (
	AdminStatusPending   = "pending"
	AdminStatusAccepted  = "accepted"
	AdminStatusPreparing = "preparing"
	AdminStatusServed    = "served"
	AdminStatusRejected  = "rejected"
)

// Configurable labels, no constraint in the store.
const (
	PaymentMethodUPI  = "upi"
	PaymentMethodCard = "card"
	PaymentMethodCash = "cash"
)

// ── WebSocket rooms and event types ──

const (
	RoomMenu         = "menu"
	RoomAdmin        = "admin"
	RoomDevicePrefix = "device:"
)

const (
	EventMenuUpdated  = "menu.updated"
	EventCartUpdated  = "cart.updated"
	EventCartNotice   = "cart.notice"
	EventOrderCreated = "order.created"
	EventOrderStatus  = "order.status"
)

const RoleAdmin = "ADMIN"
