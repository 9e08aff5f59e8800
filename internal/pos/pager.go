package pos

import (
	"errors"
	"time"

	"github.com/sheger-pos/api/internal/enum"
)

// Errors returned by the pager pool.
var (
	ErrPoolExhausted = errors.New("no pager available")
	ErrPagerNotOwned = errors.New("order holds no pager")
	ErrPagerState    = errors.New("pager is not in the expected state")
)

// Pager is one numbered buzzer token handed to a customer. It is buzzed when
// the order is ready and returned to the pool when the order completes.
type Pager struct {
	Number     int       `json:"number"`
	Status     string    `json:"status"`
	OrderID    int64     `json:"order_id,omitempty"`
	AssignedAt time.Time `json:"assigned_at,omitzero"`
}

// Pool is a fixed-size set of pagers. Ownership lives in two flat maps
// (order id -> number, number -> order id) instead of back-pointers on the
// pager entries, so releasing cannot leave a stale reference on either side.
//
// Pool is not safe for concurrent use; the Register serializes access.
type Pool struct {
	status     []string // index = pager number - 1, stable order by number
	assignedAt []time.Time
	byOrder    map[int64]int
	byNumber   map[int]int64
}

// NewPool creates a pool of size pagers, all AVAILABLE.
func NewPool(size int) *Pool {
	p := &Pool{
		status:     make([]string, size),
		assignedAt: make([]time.Time, size),
		byOrder:    make(map[int64]int),
		byNumber:   make(map[int]int64),
	}
	for i := range p.status {
		p.status[i] = enum.PagerStatusAvailable
	}
	return p
}

// Size returns the total number of pagers in the pool.
func (p *Pool) Size() int { return len(p.status) }

// Available returns how many pagers can currently be assigned.
func (p *Pool) Available() int {
	n := 0
	for _, st := range p.status {
		if st == enum.PagerStatusAvailable {
			n++
		}
	}
	return n
}

// Assign flips the first AVAILABLE pager (lowest number) to ASSIGNED and
// records the owning order. If the order already owns a pager, that pager's
// number is returned again. Returns ErrPoolExhausted when every pager is in
// use; there is no blocking or queueing, the caller must refuse the order.
func (p *Pool) Assign(orderID int64) (int, error) {
	if n, ok := p.byOrder[orderID]; ok {
		return n, nil
	}
	for i, st := range p.status {
		if st != enum.PagerStatusAvailable {
			continue
		}
		n := i + 1
		p.status[i] = enum.PagerStatusAssigned
		p.byOrder[orderID] = n
		p.byNumber[n] = orderID
		return n, nil
	}
	return 0, ErrPoolExhausted
}

// Activate flips the order's ASSIGNED pager to ACTIVE and stamps the
// assignment time.
func (p *Pool) Activate(orderID int64, at time.Time) error {
	n, ok := p.byOrder[orderID]
	if !ok {
		return ErrPagerNotOwned
	}
	if p.status[n-1] != enum.PagerStatusAssigned {
		return ErrPagerState
	}
	p.status[n-1] = enum.PagerStatusActive
	p.assignedAt[n-1] = at
	return nil
}

// Release returns the order's pager to the pool: status AVAILABLE, owner and
// assignment time cleared on both maps. Returns the freed pager number.
func (p *Pool) Release(orderID int64) (int, error) {
	n, ok := p.byOrder[orderID]
	if !ok {
		return 0, ErrPagerNotOwned
	}
	p.status[n-1] = enum.PagerStatusAvailable
	p.assignedAt[n-1] = time.Time{}
	delete(p.byOrder, orderID)
	delete(p.byNumber, n)
	return n, nil
}

// NumberFor returns the pager number held by the given order, if any.
func (p *Pool) NumberFor(orderID int64) (int, bool) {
	n, ok := p.byOrder[orderID]
	return n, ok
}

// Snapshot returns the pool state in stable order by pager number.
func (p *Pool) Snapshot() []Pager {
	out := make([]Pager, len(p.status))
	for i, st := range p.status {
		out[i] = Pager{
			Number:     i + 1,
			Status:     st,
			OrderID:    p.byNumber[i+1],
			AssignedAt: p.assignedAt[i],
		}
	}
	return out
}

// Reset returns every pager to AVAILABLE and clears all ownership.
func (p *Pool) Reset() {
	for i := range p.status {
		p.status[i] = enum.PagerStatusAvailable
		p.assignedAt[i] = time.Time{}
	}
	p.byOrder = make(map[int64]int)
	p.byNumber = make(map[int]int64)
}
