package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "0xowner"

// testClock returns a controllable clock plus a function advancing it.
func testClock() (Clock, func(d time.Duration)) {
	current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return clock, advance
}

func newTestLedger() (*Ledger, func(d time.Duration)) {
	clock, advance := testClock()
	return New(owner, 1_000_000, DefaultPolicy(), clock), advance
}

// supplyConserved checks sum(balances) == totalSupply over the given accounts.
func supplyConserved(t *testing.T, l *Ledger, accounts ...string) {
	t.Helper()
	var sum int64
	for _, a := range accounts {
		sum += l.BalanceOf(a)
	}
	assert.Equal(t, l.TotalSupply(), sum)
}

func TestInitialSupply(t *testing.T) {
	l, _ := newTestLedger()

	assert.Equal(t, int64(1_000_000), l.TotalSupply())
	assert.Equal(t, l.TotalSupply(), l.BalanceOf(owner))
	assert.Equal(t, int64(0), l.BalanceOf("0xnobody"))
}

func TestTransfer(t *testing.T) {
	l, _ := newTestLedger()

	require.NoError(t, l.Transfer(owner, "0xaddr1", 1000))
	assert.Equal(t, int64(1000), l.BalanceOf("0xaddr1"))
	assert.Equal(t, int64(999_000), l.BalanceOf(owner))
	assert.Equal(t, int64(1_000_000), l.TotalSupply())
	supplyConserved(t, l, owner, "0xaddr1")
}

func TestTransferInsufficientBalance(t *testing.T) {
	l, _ := newTestLedger()

	err := l.Transfer("0xpoor", "0xaddr1", 1)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// A rejected transfer leaves every balance untouched.
	assert.Equal(t, int64(0), l.BalanceOf("0xpoor"))
	assert.Equal(t, int64(0), l.BalanceOf("0xaddr1"))
	assert.Equal(t, int64(1_000_000), l.BalanceOf(owner))
}

func TestTransferInvalidAmount(t *testing.T) {
	l, _ := newTestLedger()

	require.ErrorIs(t, l.Transfer(owner, "0xaddr1", 0), ErrInvalidAmount)
	require.ErrorIs(t, l.Transfer(owner, "0xaddr1", -5), ErrInvalidAmount)
	assert.Equal(t, int64(1_000_000), l.BalanceOf(owner))
}

func TestRewardAmounts(t *testing.T) {
	l, _ := newTestLedger()

	minted, err := l.Reward("0xaddr1", ActionPost)
	require.NoError(t, err)
	assert.Equal(t, int64(10), minted)
	assert.Equal(t, int64(10), l.BalanceOf("0xaddr1"))

	minted, err = l.Reward("0xaddr1", ActionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), minted)
	assert.Equal(t, int64(11), l.BalanceOf("0xaddr1"))

	minted, err = l.Reward("0xaddr1", ActionComment)
	require.NoError(t, err)
	assert.Equal(t, int64(5), minted)
	assert.Equal(t, int64(16), l.BalanceOf("0xaddr1"))

	assert.Equal(t, int64(1_000_016), l.TotalSupply())
	supplyConserved(t, l, owner, "0xaddr1")
}

func TestRewardUnknownAction(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.Reward("0xaddr1", "sneeze")
	require.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, int64(0), l.BalanceOf("0xaddr1"))
	assert.Equal(t, int64(1_000_000), l.TotalSupply())
}

func TestDailyLimit(t *testing.T) {
	l, _ := newTestLedger()

	// Ten post rewards exactly exhaust the default 100-token cap.
	for i := 0; i < 10; i++ {
		_, err := l.Reward("0xaddr1", ActionPost)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(100), l.BalanceOf("0xaddr1"))

	_, err := l.Reward("0xaddr1", ActionPost)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)
	_, err = l.Reward("0xaddr1", ActionLike)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)

	// Failures leave balances and supply unchanged.
	assert.Equal(t, int64(100), l.BalanceOf("0xaddr1"))
	assert.Equal(t, int64(1_000_100), l.TotalSupply())

	// The cap is per account.
	_, err = l.Reward("0xaddr2", ActionPost)
	require.NoError(t, err)
}

func TestDailyLimitWindowReset(t *testing.T) {
	l, advance := newTestLedger()

	for i := 0; i < 10; i++ {
		_, err := l.Reward("0xaddr1", ActionPost)
		require.NoError(t, err)
	}
	_, err := l.Reward("0xaddr1", ActionPost)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)

	// Still capped just short of the boundary.
	advance(24*time.Hour - time.Minute)
	_, err = l.Reward("0xaddr1", ActionLike)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)

	// A full day after the first mint the window resets.
	advance(time.Minute)
	minted, err := l.Reward("0xaddr1", ActionPost)
	require.NoError(t, err)
	assert.Equal(t, int64(10), minted)
	assert.Equal(t, int64(110), l.BalanceOf("0xaddr1"))
}

func TestWindowAnchorsAtFirstMint(t *testing.T) {
	l, advance := newTestLedger()

	// First mint anchors the window.
	_, err := l.Reward("0xaddr1", ActionPost)
	require.NoError(t, err)

	// 23h later the same window still applies.
	advance(23 * time.Hour)
	for i := 0; i < 9; i++ {
		_, err := l.Reward("0xaddr1", ActionPost)
		require.NoError(t, err)
	}
	_, err = l.Reward("0xaddr1", ActionLike)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)

	// One more hour crosses the anchor and the next mint starts a new window
	// anchored at its own time, not at a calendar boundary.
	advance(time.Hour)
	_, err = l.Reward("0xaddr1", ActionPost)
	require.NoError(t, err)

	advance(23 * time.Hour)
	for i := 0; i < 9; i++ {
		_, err := l.Reward("0xaddr1", ActionPost)
		require.NoError(t, err)
	}
	_, err = l.Reward("0xaddr1", ActionPost)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)
}

func TestSupplyConservationUnderMixedCalls(t *testing.T) {
	l, advance := newTestLedger()
	accounts := []string{owner, "0xa", "0xb", "0xc"}

	require.NoError(t, l.Transfer(owner, "0xa", 500))
	require.NoError(t, l.Transfer(owner, "0xb", 250))
	_, _ = l.Reward("0xa", ActionPost)
	_, _ = l.Reward("0xb", ActionLike)
	require.NoError(t, l.Transfer("0xa", "0xc", 100))
	_ = l.Transfer("0xc", "0xa", 10_000) // rejected, must not skew the sum
	advance(25 * time.Hour)
	_, _ = l.Reward("0xc", ActionComment)

	supplyConserved(t, l, accounts...)
}

func TestLedgerSnapshotRestore(t *testing.T) {
	l, _ := newTestLedger()
	require.NoError(t, l.Transfer(owner, "0xa", 1234))
	_, err := l.Reward("0xa", ActionPost)
	require.NoError(t, err)

	snap := l.Snapshot()

	clock, _ := testClock()
	restored := New("0xother", 1, DefaultPolicy(), clock)
	restored.Restore(snap)

	assert.Equal(t, l.TotalSupply(), restored.TotalSupply())
	assert.Equal(t, l.BalanceOf("0xa"), restored.BalanceOf("0xa"))
	assert.Equal(t, l.BalanceOf(owner), restored.BalanceOf(owner))

	// The restored window keeps counting against the cap.
	for i := 0; i < 9; i++ {
		_, err := restored.Reward("0xa", ActionPost)
		require.NoError(t, err)
	}
	_, err = restored.Reward("0xa", ActionLike)
	require.ErrorIs(t, err, ErrDailyLimitExceeded)
}
