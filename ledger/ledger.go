package ledger

import (
	"errors"
	"time"

	"github.com/n1k61n/web3-sosial/models"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDailyLimitExceeded  = errors.New("daily limit exceeded")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrUnknownAction       = errors.New("unknown reward action")
)

// rewardWindow is the length of the per-account rolling mint window.
const rewardWindow = 24 * time.Hour

// Ledger owns account balances and the total supply. It issues capped,
// policy-priced rewards and standard transfers. All methods must run inside
// the host's serialization slot; the ledger itself carries no locking.
//
// Every method either commits all of its state changes or none: failure
// checks happen before the first mutation.
type Ledger struct {
	owner    string
	policy   *Policy
	clock    Clock
	supply   int64
	balances map[string]int64
	windows  map[string]models.RewardWindow
}

// New constructs a ledger and mints the initial supply to the owner. This is
// the only moment supply is created outside of Reward.
func New(owner string, initialSupply int64, policy *Policy, clock Clock) *Ledger {
	l := &Ledger{
		owner:    owner,
		policy:   policy,
		clock:    clock,
		supply:   initialSupply,
		balances: make(map[string]int64),
		windows:  make(map[string]models.RewardWindow),
	}
	l.balances[owner] = initialSupply
	return l
}

// Transfer moves amount from one account to another. Supply is unchanged.
func (l *Ledger) Transfer(from, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Reward mints the policy amount for the given action to the account,
// bounded by the rolling 24h window cap. Returns the minted amount.
//
// The window anchors at the account's first mint after the previous reset,
// not at a shared calendar boundary: a failed attempt never moves the
// anchor or any other state.
func (l *Ledger) Reward(account, action string) (int64, error) {
	amount, ok := l.policy.AmountFor(action)
	if !ok {
		return 0, ErrUnknownAction
	}

	now := l.clock()
	w := l.windows[account]
	if w.Minted > 0 && now.UnixMilli()-w.WindowStart >= rewardWindow.Milliseconds() {
		w = models.RewardWindow{}
	}
	if w.Minted+amount > l.policy.DailyLimit() {
		return 0, ErrDailyLimitExceeded
	}

	if w.Minted == 0 {
		w.WindowStart = now.UnixMilli()
	}
	w.Minted += amount
	l.windows[account] = w
	l.balances[account] += amount
	l.supply += amount
	return amount, nil
}

// BalanceOf returns the balance of an account; unreferenced accounts are zero.
func (l *Ledger) BalanceOf(account string) int64 {
	return l.balances[account]
}

// TotalSupply returns the total issued supply.
func (l *Ledger) TotalSupply() int64 {
	return l.supply
}

// DailyLimit returns the configured per-account rolling-window cap.
func (l *Ledger) DailyLimit() int64 {
	return l.policy.DailyLimit()
}

// Snapshot copies the full ledger state for checkpointing.
func (l *Ledger) Snapshot() models.LedgerSnapshot {
	balances := make(map[string]int64, len(l.balances))
	for k, v := range l.balances {
		balances[k] = v
	}
	windows := make(map[string]models.RewardWindow, len(l.windows))
	for k, v := range l.windows {
		windows[k] = v
	}
	return models.LedgerSnapshot{
		Owner:       l.owner,
		TotalSupply: l.supply,
		Balances:    balances,
		Windows:     windows,
	}
}

// Restore replaces the ledger state with a previously taken snapshot.
func (l *Ledger) Restore(s models.LedgerSnapshot) {
	l.owner = s.Owner
	l.supply = s.TotalSupply
	l.balances = make(map[string]int64, len(s.Balances))
	for k, v := range s.Balances {
		l.balances[k] = v
	}
	l.windows = make(map[string]models.RewardWindow, len(s.Windows))
	for k, v := range s.Windows {
		l.windows[k] = v
	}
}
