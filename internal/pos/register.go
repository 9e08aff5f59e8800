package pos

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sheger-pos/api/internal/enum"
)

// VATRate is the Ethiopian value-added tax, applied to the order subtotal
// before tip.
var VATRate = decimal.New(15, -2)

// Errors returned by the register.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCustomerName     = errors.New("customer name is required")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyPaid      = errors.New("order is already paid")
	ErrNegativeTip      = errors.New("tip must be >= 0")
	ErrInsufficientCash = errors.New("amount received is less than the total")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrBadTransition    = errors.New("cannot transition")
)

// Line is a snapshot of one cart line at submission time: name, unit price
// and prep time are copied from the menu item so later menu edits cannot
// reshape an already-placed order.
type Line struct {
	Name         string          `json:"name"`
	Quantity     int32           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Station      string          `json:"station,omitempty"`
	PrepMinutes  int32           `json:"prep_minutes"`
	Instructions string          `json:"instructions,omitempty"`
}

// Order is one entry in the session ledger.
type Order struct {
	ID            int64
	Number        string
	TableID       string
	Customer      string
	Pager         int
	Lines         []Line
	Status        string
	PaymentStatus string
	Subtotal      decimal.Decimal
	ReadyBy       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Set by Pay.
	PaymentMethod string
	VATAmount     decimal.Decimal
	TipAmount     decimal.Decimal
	Total         decimal.Decimal
	PaidAt        time.Time

	CompletedAt time.Time
}

// SubmitRequest is a cashier's cart, already priced against the menu.
type SubmitRequest struct {
	TableID  string
	Customer string
	Lines    []Line
}

// PayRequest settles an order in full. AmountReceived is only meaningful for
// CASH payments.
type PayRequest struct {
	Method         string
	Tip            decimal.Decimal
	AmountReceived decimal.Decimal
}

// Receipt is the tax breakdown produced by Pay.
type Receipt struct {
	OrderID        int64
	OrderNumber    string
	Method         string
	Subtotal       decimal.Decimal
	VAT            decimal.Decimal
	GrandTotal     decimal.Decimal
	Tip            decimal.Decimal
	Total          decimal.Decimal
	AmountReceived decimal.Decimal
	Change         decimal.Decimal
	PaidAt         time.Time
}

// allowedTransitions defines the monotonic order status progression.
// There are no reverse transitions and no cancellation state.
var allowedTransitions = map[string]string{
	enum.OrderStatusPending:   enum.OrderStatusPreparing,
	enum.OrderStatusPreparing: enum.OrderStatusReady,
	enum.OrderStatusReady:     enum.OrderStatusCompleted,
}

// Register owns the session state of the cashier flow: the order ledger and
// the pager pool. Every transition is a single synchronous mutation under one
// lock, so no partial-failure state is observable. Nothing here is durable;
// Reset (or a process restart) clears the whole session.
type Register struct {
	mu     sync.RWMutex
	pool   *Pool
	orders []*Order // newest first
	byID   map[int64]*Order
	nextID int64
	now    func() time.Time
}

// NewRegister creates a register backed by the given pager pool.
func NewRegister(pool *Pool) *Register {
	return &Register{
		pool: pool,
		byID: make(map[int64]*Order),
		now:  time.Now,
	}
}

// Submit validates the cart, allocates a pager and appends a new PENDING
// order to the ledger. On pager exhaustion it fails before any state is
// touched, so the caller can refuse the order and keep the cart.
func (r *Register) Submit(req SubmitRequest) (Order, error) {
	if len(req.Lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	if strings.TrimSpace(req.Customer) == "" {
		return Order{}, ErrCustomerName
	}
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return Order{}, fmt.Errorf("lines[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID + 1
	pager, err := r.pool.Assign(id)
	if err != nil {
		return Order{}, err
	}
	r.nextID = id

	now := r.now()
	subtotal := decimal.Zero
	var maxPrep int32
	lines := make([]Line, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = line
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		if line.PrepMinutes > maxPrep {
			maxPrep = line.PrepMinutes
		}
	}

	o := &Order{
		ID:            id,
		Number:        fmt.Sprintf("SHG-%03d", id),
		TableID:       req.TableID,
		Customer:      strings.TrimSpace(req.Customer),
		Pager:         pager,
		Lines:         lines,
		Status:        enum.OrderStatusPending,
		PaymentStatus: enum.PaymentStatusPending,
		Subtotal:      subtotal,
		ReadyBy:       now.Add(time.Duration(maxPrep) * time.Minute),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.pool.Activate(id, now); err != nil {
		// Unreachable after a successful Assign, but do not half-create.
		r.pool.Release(id)
		r.nextID--
		return Order{}, err
	}

	r.orders = append([]*Order{o}, r.orders...)
	r.byID[id] = o
	return cloneOrder(o), nil
}

// Pay settles the order in full: VAT = subtotal x 0.15, grand total =
// subtotal + VAT, total = grand total + tip. Payment status flips PENDING ->
// PAID exactly once; a second call fails with ErrAlreadyPaid. A paid PENDING
// order advances straight to PREPARING.
func (r *Register) Pay(orderID int64, req PayRequest) (Receipt, Order, error) {
	if req.Tip.IsNegative() {
		return Receipt{}, Order{}, ErrNegativeTip
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[orderID]
	if !ok {
		return Receipt{}, Order{}, ErrOrderNotFound
	}
	if o.PaymentStatus == enum.PaymentStatusPaid {
		return Receipt{}, Order{}, ErrAlreadyPaid
	}

	vat := o.Subtotal.Mul(VATRate)
	grand := o.Subtotal.Add(vat)
	total := grand.Add(req.Tip)

	receipt := Receipt{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Method:      req.Method,
		Subtotal:    o.Subtotal,
		VAT:         vat,
		GrandTotal:  grand,
		Tip:         req.Tip,
		Total:       total,
	}
	if req.Method == enum.PaymentMethodCash {
		if req.AmountReceived.LessThan(total) {
			return Receipt{}, Order{}, ErrInsufficientCash
		}
		receipt.AmountReceived = req.AmountReceived
		receipt.Change = req.AmountReceived.Sub(total)
	}

	now := r.now()
	o.PaymentStatus = enum.PaymentStatusPaid
	o.PaymentMethod = req.Method
	o.VATAmount = vat
	o.TipAmount = req.Tip
	o.Total = total
	o.PaidAt = now
	o.UpdatedAt = now
	receipt.PaidAt = now

	if o.Status == enum.OrderStatusPending {
		o.Status = enum.OrderStatusPreparing
	}

	return receipt, cloneOrder(o), nil
}

// Advance moves an order one step along PENDING -> PREPARING -> READY ->
// COMPLETED. Reaching COMPLETED releases the order's pager back to the pool;
// that is the only release path.
func (r *Register) Advance(orderID int64, next string) (Order, error) {
	if !isValidStatus(next) {
		return Order{}, ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.byID[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if allowedTransitions[o.Status] != next {
		return Order{}, fmt.Errorf("%w from %s to %s", ErrBadTransition, o.Status, next)
	}

	now := r.now()
	if next == enum.OrderStatusCompleted {
		if _, err := r.pool.Release(orderID); err != nil {
			return Order{}, err
		}
		o.CompletedAt = now
	}
	o.Status = next
	o.UpdatedAt = now
	return cloneOrder(o), nil
}

// Order returns a copy of the order with the given id.
func (r *Register) Order(orderID int64) (Order, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[orderID]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// Orders returns the ledger newest first, optionally filtered by status.
func (r *Register) Orders(status string) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out
}

// OpenOrders returns not-yet-completed orders oldest first, the kitchen
// queue view. A station filter keeps only orders with at least one line for
// that station.
func (r *Register) OpenOrders(station string) []Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if o.Status == enum.OrderStatusCompleted {
			continue
		}
		if station != "" && !hasStation(o, station) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out
}

// Pagers returns the pager pool state in stable order by number.
func (r *Register) Pagers() []Pager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool.Snapshot()
}

// AvailablePagers returns how many pagers can currently be assigned.
func (r *Register) AvailablePagers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool.Available()
}

// Reset clears the whole session: the ledger and every pager allocation.
func (r *Register) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = nil
	r.byID = make(map[int64]*Order)
	r.pool.Reset()
}

// --- Helpers ---

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusPreparing,
		enum.OrderStatusReady, enum.OrderStatusCompleted:
		return true
	}
	return false
}

func hasStation(o *Order, station string) bool {
	for _, line := range o.Lines {
		if line.Station == station {
			return true
		}
	}
	return false
}

func cloneOrder(o *Order) Order {
	out := *o
	out.Lines = append([]Line(nil), o.Lines...)
	return out
}
