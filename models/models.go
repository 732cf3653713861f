package models

// Profile is the one-time-registered identity record of an account.
type Profile struct {
	Address        string `json:"address"`         // wallet address, opaque identifier
	Username       string `json:"username"`
	AvatarURI      string `json:"avatar_uri"`
	Bio            string `json:"bio"`
	PostCount      int    `json:"post_count"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Exists         bool   `json:"exists"`
}

// Post identity and content never change after creation; only the counters do.
type Post struct {
	ID           uint64 `json:"id"` // sequential, starts at 1, never reused
	Author       string `json:"author"`
	ContentURI   string `json:"content_uri"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
	RepostCount  int    `json:"repost_count"`
	CreatedAt    int64  `json:"created_at"` // unix timestamp in ms
}

// Comment is an append-only record attached to a post.
type Comment struct {
	ID         uint64 `json:"id"`
	PostID     uint64 `json:"post_id"`
	Author     string `json:"author"`
	ContentURI string `json:"content_uri"`
	CreatedAt  int64  `json:"created_at"` // unix timestamp in ms
}

// NotificationEvent is emitted out-of-band after a committed like, follow
// or comment. Delivery is best-effort; the core only guarantees the state
// change justifying it has committed exactly once.
type NotificationEvent struct {
	Kind      string `json:"kind"` // "like", "follow" or "comment"
	Actor     string `json:"actor"`
	Recipient string `json:"recipient"`
	PostID    uint64 `json:"post_id,omitempty"`
}

// RewardWindow is the per-account rolling 24h minting window.
type RewardWindow struct {
	WindowStart int64 `json:"window_start"` // unix ms of the first mint in the window
	Minted      int64 `json:"minted"`
}

// LedgerSnapshot is a full serializable copy of the token ledger state.
type LedgerSnapshot struct {
	Owner       string                  `json:"owner"`
	TotalSupply int64                   `json:"total_supply"`
	Balances    map[string]int64        `json:"balances"`
	Windows     map[string]RewardWindow `json:"windows"`
}

// LikeEdge and FollowEdge flatten the in-memory sets for snapshots.
type LikeEdge struct {
	PostID uint64 `json:"post_id"`
	Liker  string `json:"liker"`
}

type FollowEdge struct {
	Follower string `json:"follower"`
	Followee string `json:"followee"`
}

// GraphSnapshot is a full serializable copy of the social graph state.
type GraphSnapshot struct {
	Profiles      map[string]*Profile `json:"profiles"`
	Posts         []*Post             `json:"posts"`
	Comments      []*Comment          `json:"comments"`
	Likes         []LikeEdge          `json:"likes"`
	Follows       []FollowEdge        `json:"follows"`
	NextPostID    uint64              `json:"next_post_id"`
	NextCommentID uint64              `json:"next_comment_id"`
}

// Checkpoint bundles both component snapshots so the host can restore a
// consistent state after restart.
type Checkpoint struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"` // unix ms
	Ledger    LedgerSnapshot `json:"ledger"`
	Graph     GraphSnapshot  `json:"graph"`
}
