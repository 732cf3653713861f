package social

import (
	"errors"
	"sort"

	"github.com/n1k61n/web3-sosial/ledger"
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/models"

	"go.uber.org/zap"
)

var (
	ErrAlreadyExists    = errors.New("profile already exists")
	ErrNotRegistered    = errors.New("profile not registered")
	ErrPostNotFound     = errors.New("post not found")
	ErrAlreadyLiked     = errors.New("already liked")
	ErrNotLiked         = errors.New("not liked")
	ErrSelfFollow       = errors.New("cannot follow self")
	ErrAlreadyFollowing = errors.New("already following")
	ErrNotFollowing     = errors.New("not following")
)

// Rewarder is the capability the graph holds on the token ledger. A reward
// failure is never allowed to fail the social action that triggered it, so
// implementations may reject freely.
type Rewarder interface {
	Reward(account, action string) (int64, error)
}

type likeKey struct {
	postID uint64
	liker  string
}

type followKey struct {
	follower string
	followee string
}

// Graph owns profiles, posts, like records and follow edges, and enforces
// their relational invariants. Like the ledger, it relies on the host for
// serialization and checks every failure condition before mutating anything.
type Graph struct {
	rewarder      Rewarder
	clock         ledger.Clock
	profiles      map[string]*models.Profile
	posts         map[uint64]*models.Post
	comments      map[uint64][]*models.Comment // keyed by post ID
	likes         map[likeKey]struct{}
	follows       map[followKey]struct{}
	nextPostID    uint64
	nextCommentID uint64
}

// NewGraph builds an empty graph bound to a reward capability. The binding
// is immutable for the lifetime of the graph.
func NewGraph(rewarder Rewarder, clock ledger.Clock) *Graph {
	return &Graph{
		rewarder:      rewarder,
		clock:         clock,
		profiles:      make(map[string]*models.Profile),
		posts:         make(map[uint64]*models.Post),
		comments:      make(map[uint64][]*models.Comment),
		likes:         make(map[likeKey]struct{}),
		follows:       make(map[followKey]struct{}),
		nextPostID:    1,
		nextCommentID: 1,
	}
}

// CreateProfile registers the caller exactly once. Registration is one-way:
// a profile can never go back to unregistered.
func (g *Graph) CreateProfile(caller, username, avatarURI string) (*models.Profile, error) {
	if p, ok := g.profiles[caller]; ok && p.Exists {
		return nil, ErrAlreadyExists
	}
	p := &models.Profile{
		Address:   caller,
		Username:  username,
		AvatarURI: avatarURI,
		Exists:    true,
	}
	g.profiles[caller] = p
	return p, nil
}

// UpdateProfile overwrites only the fields that were provided; nil means
// "leave unchanged".
func (g *Graph) UpdateProfile(caller string, username, bio, avatarURI *string) (*models.Profile, error) {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	if username != nil {
		p.Username = *username
	}
	if bio != nil {
		p.Bio = *bio
	}
	if avatarURI != nil {
		p.AvatarURI = *avatarURI
	}
	return p, nil
}

// CreatePost allocates the next sequential post ID for the caller and pays
// the post reward best-effort.
func (g *Graph) CreatePost(caller, contentURI string) (*models.Post, error) {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	post := &models.Post{
		ID:         g.nextPostID,
		Author:     caller,
		ContentURI: contentURI,
		CreatedAt:  g.clock().UnixMilli(),
	}
	g.nextPostID++
	g.posts[post.ID] = post
	p.PostCount++
	g.tryReward(caller, ledger.ActionPost)
	return post, nil
}

// LikePost records a unique (post, liker) pair and pays the like reward to
// the post's author best-effort.
func (g *Graph) LikePost(caller string, postID uint64) (*models.Post, error) {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	post, ok := g.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	key := likeKey{postID: postID, liker: caller}
	if _, liked := g.likes[key]; liked {
		return nil, ErrAlreadyLiked
	}
	g.likes[key] = struct{}{}
	post.LikeCount++
	g.tryReward(post.Author, ledger.ActionLike)
	return post, nil
}

// UnlikePost is the exact inverse of LikePost: it removes the record and
// restores the counter, leaving minted rewards untouched.
func (g *Graph) UnlikePost(caller string, postID uint64) (*models.Post, error) {
	key := likeKey{postID: postID, liker: caller}
	if _, liked := g.likes[key]; !liked {
		return nil, ErrNotLiked
	}
	delete(g.likes, key)
	post := g.posts[postID]
	post.LikeCount--
	return post, nil
}

// AddComment appends a comment to an existing post and pays the comment
// reward to the commenter best-effort.
func (g *Graph) AddComment(caller string, postID uint64, contentURI string) (*models.Comment, error) {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	post, ok := g.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	c := &models.Comment{
		ID:         g.nextCommentID,
		PostID:     postID,
		Author:     caller,
		ContentURI: contentURI,
		CreatedAt:  g.clock().UnixMilli(),
	}
	g.nextCommentID++
	g.comments[postID] = append(g.comments[postID], c)
	post.CommentCount++
	g.tryReward(caller, ledger.ActionComment)
	return c, nil
}

// Repost bumps the original post's repost counter and creates a new post by
// the caller carrying the original content URI. The new post counts toward
// the caller's postCount and earns the post reward like any other creation.
func (g *Graph) Repost(caller string, postID uint64) (*models.Post, error) {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	original, ok := g.posts[postID]
	if !ok {
		return nil, ErrPostNotFound
	}
	repost := &models.Post{
		ID:         g.nextPostID,
		Author:     caller,
		ContentURI: original.ContentURI,
		CreatedAt:  g.clock().UnixMilli(),
	}
	g.nextPostID++
	g.posts[repost.ID] = repost
	p.PostCount++
	original.RepostCount++
	g.tryReward(caller, ledger.ActionPost)
	return repost, nil
}

// Follow inserts a directed edge and bumps both counters symmetrically.
func (g *Graph) Follow(caller, target string) error {
	p, ok := g.profiles[caller]
	if !ok || !p.Exists {
		return ErrNotRegistered
	}
	t, ok := g.profiles[target]
	if !ok || !t.Exists {
		return ErrNotRegistered
	}
	if caller == target {
		return ErrSelfFollow
	}
	key := followKey{follower: caller, followee: target}
	if _, following := g.follows[key]; following {
		return ErrAlreadyFollowing
	}
	g.follows[key] = struct{}{}
	p.FollowingCount++
	t.FollowerCount++
	return nil
}

// Unfollow removes the edge and restores both counters.
func (g *Graph) Unfollow(caller, target string) error {
	key := followKey{follower: caller, followee: target}
	if _, following := g.follows[key]; !following {
		return ErrNotFollowing
	}
	delete(g.follows, key)
	g.profiles[caller].FollowingCount--
	g.profiles[target].FollowerCount--
	return nil
}

// GetProfile returns the profile of an account or ErrNotRegistered.
func (g *Graph) GetProfile(account string) (*models.Profile, error) {
	p, ok := g.profiles[account]
	if !ok || !p.Exists {
		return nil, ErrNotRegistered
	}
	return p, nil
}

// GetPost returns a post by ID or ErrPostNotFound.
func (g *Graph) GetPost(id uint64) (*models.Post, error) {
	post, ok := g.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// GetComments returns the comments of a post in creation order.
func (g *Graph) GetComments(postID uint64) ([]*models.Comment, error) {
	if _, ok := g.posts[postID]; !ok {
		return nil, ErrPostNotFound
	}
	return g.comments[postID], nil
}

// PostCount returns the number of posts ever created.
func (g *Graph) PostCount() uint64 {
	return g.nextPostID - 1
}

// HasLiked reports whether the account has an active like on the post.
func (g *Graph) HasLiked(account string, postID uint64) bool {
	_, ok := g.likes[likeKey{postID: postID, liker: account}]
	return ok
}

// IsFollowing reports whether the follower → followee edge exists.
func (g *Graph) IsFollowing(follower, followee string) bool {
	_, ok := g.follows[followKey{follower: follower, followee: followee}]
	return ok
}

// tryReward requests a reward and swallows any failure: the reward is an
// incentive, not a correctness precondition of the graph mutation that has
// already been applied.
func (g *Graph) tryReward(account, action string) {
	if g.rewarder == nil {
		return
	}
	if _, err := g.rewarder.Reward(account, action); err != nil {
		logger.Logger.Warn("reward skipped",
			zap.String("account", account),
			zap.String("action", action),
			zap.Error(err))
	}
}

// Snapshot copies the full graph state for checkpointing. Slices are sorted
// by key so snapshots of equal state are byte-identical.
func (g *Graph) Snapshot() models.GraphSnapshot {
	s := models.GraphSnapshot{
		Profiles:      make(map[string]*models.Profile, len(g.profiles)),
		NextPostID:    g.nextPostID,
		NextCommentID: g.nextCommentID,
	}
	for addr, p := range g.profiles {
		cp := *p
		s.Profiles[addr] = &cp
	}
	for _, post := range g.posts {
		cp := *post
		s.Posts = append(s.Posts, &cp)
	}
	sort.Slice(s.Posts, func(i, j int) bool { return s.Posts[i].ID < s.Posts[j].ID })
	for _, list := range g.comments {
		for _, c := range list {
			cp := *c
			s.Comments = append(s.Comments, &cp)
		}
	}
	sort.Slice(s.Comments, func(i, j int) bool { return s.Comments[i].ID < s.Comments[j].ID })
	for k := range g.likes {
		s.Likes = append(s.Likes, models.LikeEdge{PostID: k.postID, Liker: k.liker})
	}
	sort.Slice(s.Likes, func(i, j int) bool {
		if s.Likes[i].PostID != s.Likes[j].PostID {
			return s.Likes[i].PostID < s.Likes[j].PostID
		}
		return s.Likes[i].Liker < s.Likes[j].Liker
	})
	for k := range g.follows {
		s.Follows = append(s.Follows, models.FollowEdge{Follower: k.follower, Followee: k.followee})
	}
	sort.Slice(s.Follows, func(i, j int) bool {
		if s.Follows[i].Follower != s.Follows[j].Follower {
			return s.Follows[i].Follower < s.Follows[j].Follower
		}
		return s.Follows[i].Followee < s.Follows[j].Followee
	})
	return s
}

// Restore replaces the graph state with a previously taken snapshot.
func (g *Graph) Restore(s models.GraphSnapshot) {
	g.profiles = make(map[string]*models.Profile, len(s.Profiles))
	for addr, p := range s.Profiles {
		cp := *p
		g.profiles[addr] = &cp
	}
	g.posts = make(map[uint64]*models.Post, len(s.Posts))
	for _, post := range s.Posts {
		cp := *post
		g.posts[cp.ID] = &cp
	}
	g.comments = make(map[uint64][]*models.Comment)
	for _, c := range s.Comments {
		cp := *c
		g.comments[cp.PostID] = append(g.comments[cp.PostID], &cp)
	}
	g.likes = make(map[likeKey]struct{}, len(s.Likes))
	for _, l := range s.Likes {
		g.likes[likeKey{postID: l.PostID, liker: l.Liker}] = struct{}{}
	}
	g.follows = make(map[followKey]struct{}, len(s.Follows))
	for _, f := range s.Follows {
		g.follows[followKey{follower: f.Follower, followee: f.Followee}] = struct{}{}
	}
	g.nextPostID = s.NextPostID
	if g.nextPostID == 0 {
		g.nextPostID = 1
	}
	g.nextCommentID = s.NextCommentID
	if g.nextCommentID == 0 {
		g.nextCommentID = 1
	}
}
