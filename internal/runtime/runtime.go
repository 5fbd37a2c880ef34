// Package runtime hosts contract components in one process the way the
// ledger would: every invocation runs to completion before the next, remote
// calls settle asynchronously, and continuations run as separate, later
// invocations carrying only their bound parameters and the call result.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/contracts"
	"github.com/nearvndev/nft-marketplace-tutorial/pkg/models"
)

// Handler executes one named method of a registered component. caller is
// the account the call was dispatched from.
type Handler func(caller models.AccountID, args []byte) ([]byte, error)

// Transfer is a recorded value movement. Native transfers have an empty
// TokenContract.
type Transfer struct {
	TokenContract models.AccountID
	Account       models.AccountID
	Amount        models.Amount
	Memo          string
}

// Runtime is a single-threaded invocation queue plus the ledger services
// the domains need: remote-call scheduling, value transfer, and an event
// log. One Runtime instance backs one node.
type Runtime struct {
	mu        sync.Mutex
	queue     []func()
	handlers  map[string]Handler
	balances  map[models.AccountID]models.Amount
	transfers []Transfer
	events    []models.EventLog
	kick      chan struct{}
	log       *slog.Logger
}

func New(log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	return &Runtime{
		handlers: make(map[string]Handler),
		balances: make(map[models.AccountID]models.Amount),
		kick:     make(chan struct{}, 1),
		log:      log,
	}
}

func handlerKey(target models.AccountID, method string) string {
	return fmt.Sprintf("%s/%s", target, method)
}

// Register binds a method handler for a component account. Later
// registrations for the same method replace earlier ones.
func (r *Runtime) Register(target models.AccountID, method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handlerKey(target, method)] = h
}

// Invoke enqueues an externally-triggered invocation. It returns without
// running anything; the caller drives execution through Step or Drain, or a
// background Run loop picks it up.
func (r *Runtime) Invoke(fn func()) {
	r.enqueue(fn)
}

// Dispatch implements contracts.Scheduler. The remote call executes as its
// own invocation; the continuation, when present, is enqueued after the
// call settles, so unrelated invocations may interleave between the two.
func (r *Runtime) Dispatch(call contracts.RemoteCall) {
	then := call.Then
	r.enqueue(func() {
		res := r.execute(call)
		if then != nil {
			r.enqueue(func() { then(res) })
		}
	})
}

func (r *Runtime) execute(call contracts.RemoteCall) contracts.CallResult {
	r.mu.Lock()
	h, ok := r.handlers[handlerKey(call.Target, call.Method)]
	r.mu.Unlock()
	if !ok {
		r.log.Warn("remote call target missing", "target", call.Target, "method", call.Method)
		return contracts.CallResult{Ok: false}
	}
	value, err := h(call.From, call.Args)
	if err != nil {
		r.log.Warn("remote call failed", "target", call.Target, "method", call.Method, "err", err)
		return contracts.CallResult{Ok: false}
	}
	return contracts.CallResult{Ok: true, Value: value}
}

func (r *Runtime) enqueue(fn func()) {
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Step runs a single queued invocation to completion. It reports whether
// anything ran.
func (r *Runtime) Step() bool {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		return false
	}
	fn := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()

	fn()
	return true
}

// Drain runs queued invocations until the queue is empty, returning how
// many ran. Invocations enqueued while draining are included.
func (r *Runtime) Drain() int {
	n := 0
	for r.Step() {
		n++
	}
	return n
}

// Pending reports the queued invocation count.
func (r *Runtime) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// TransferNative implements contracts.Bank. Fire-and-forget: the movement
// is recorded and credited, and no caller ever observes a result.
func (r *Runtime) TransferNative(account models.AccountID, amount models.Amount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, Transfer{Account: account, Amount: amount})
	r.balances[account] = r.balances[account].Add(amount)
}

// TransferToken implements contracts.Bank for token-denominated value. The
// instruction is recorded for the named token contract to act on.
func (r *Runtime) TransferToken(tokenContract, account models.AccountID, amount models.Amount, memo string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, Transfer{
		TokenContract: tokenContract,
		Account:       account,
		Amount:        amount,
		Memo:          memo,
	})
}

// Emit implements contracts.EventSink.
func (r *Runtime) Emit(event models.EventLog) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.log.Info("event emitted", "standard", event.Standard, "event", event.Event)
}

// Transfers returns a copy of every recorded value movement, oldest first.
func (r *Runtime) Transfers() []Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transfer, len(r.transfers))
	copy(out, r.transfers)
	return out
}

// NativeBalanceOf returns the native value credited to account so far.
func (r *Runtime) NativeBalanceOf(account models.AccountID) models.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[account]
}

// Events returns a copy of the emitted event log, oldest first.
func (r *Runtime) Events() []models.EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventLog, len(r.events))
	copy(out, r.events)
	return out
}
