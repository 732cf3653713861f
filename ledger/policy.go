package ledger

// Reward action kinds understood by the default policy.
const (
	ActionPost    = "post"
	ActionLike    = "like"
	ActionComment = "comment"
)

// Default reward amounts and cap, in whole token units.
const (
	DefaultPostReward    = 10
	DefaultLikeReward    = 1
	DefaultCommentReward = 5
	DefaultDailyLimit    = 100
)

// Policy maps action kinds to reward amounts and carries the daily mint cap.
// It is pure data: the ledger consults it, never mutates it.
type Policy struct {
	rewards    map[string]int64
	dailyLimit int64
}

// NewPolicy builds a policy from explicit reward amounts. The map is copied
// so the caller cannot mutate policy data after construction.
func NewPolicy(rewards map[string]int64, dailyLimit int64) *Policy {
	r := make(map[string]int64, len(rewards))
	for k, v := range rewards {
		r[k] = v
	}
	return &Policy{rewards: r, dailyLimit: dailyLimit}
}

// DefaultPolicy returns the stock amounts: post 10, like 1, comment 5,
// capped at 100 tokens per account per rolling 24h window.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string]int64{
		ActionPost:    DefaultPostReward,
		ActionLike:    DefaultLikeReward,
		ActionComment: DefaultCommentReward,
	}, DefaultDailyLimit)
}

// AmountFor returns the reward amount for an action kind, and whether the
// kind is known to the policy at all.
func (p *Policy) AmountFor(action string) (int64, bool) {
	amount, ok := p.rewards[action]
	return amount, ok
}

// DailyLimit returns the per-account rolling-window mint cap.
func (p *Policy) DailyLimit() int64 {
	return p.dailyLimit
}
