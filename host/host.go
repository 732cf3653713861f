package host

import (
	"fmt"
	"sync"

	"github.com/n1k61n/web3-sosial/ledger"
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/models"
	"github.com/n1k61n/web3-sosial/notifier"
	"github.com/n1k61n/web3-sosial/repository"
	"github.com/n1k61n/web3-sosial/social"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	txCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "w3social_transactions_committed_total",
		Help: "Committed transactions by operation",
	}, []string{"op"})

	txRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "w3social_transactions_rejected_total",
		Help: "Rejected transactions by operation",
	}, []string{"op"})
)

// Host executes transactions one at a time against the ledger and the social
// graph. A single mutex is the whole concurrency story: each operation runs
// to completion inside it, so the components below never see partial effects
// and need no locking of their own.
//
// After a commit the host runs best-effort side effects outside the
// transaction contract: mirror writes for off-ledger readers, notification
// events, and periodic checkpoints. None of these can fail a transaction.
type Host struct {
	mu            sync.Mutex
	ledger        *ledger.Ledger
	graph         *social.Graph
	mirror        repository.Mirror
	notifier      notifier.Notifier
	clock         ledger.Clock
	snapshotEvery uint64
	committed     uint64
}

// New wires a host. Mirror and notifier may be nil; snapshotEvery 0 disables
// periodic checkpoints (shutdown checkpoints still work via Checkpoint).
func New(l *ledger.Ledger, g *social.Graph, mirror repository.Mirror, n notifier.Notifier, clock ledger.Clock, snapshotEvery uint64) *Host {
	return &Host{
		ledger:        l,
		graph:         g,
		mirror:        mirror,
		notifier:      n,
		clock:         clock,
		snapshotEvery: snapshotEvery,
	}
}

// Transfer executes a ledger transfer transaction.
func (h *Host) Transfer(from, to string, amount int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.ledger.Transfer(from, to, amount); err != nil {
		txRejected.WithLabelValues("transfer").Inc()
		return err
	}
	h.commit("transfer")
	return nil
}

// Reward executes a direct ledger reward transaction.
func (h *Host) Reward(account, action string) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	minted, err := h.ledger.Reward(account, action)
	if err != nil {
		txRejected.WithLabelValues("reward").Inc()
		return 0, err
	}
	h.commit("reward")
	return minted, nil
}

// CreateProfile registers the caller in the social graph.
func (h *Host) CreateProfile(caller, username, avatarURI string) (*models.Profile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.graph.CreateProfile(caller, username, avatarURI)
	if err != nil {
		txRejected.WithLabelValues("create_profile").Inc()
		return nil, err
	}
	h.mirrorProfile(p)
	h.commit("create_profile")
	return copyProfile(p), nil
}

// UpdateProfile overwrites the provided profile fields.
func (h *Host) UpdateProfile(caller string, username, bio, avatarURI *string) (*models.Profile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.graph.UpdateProfile(caller, username, bio, avatarURI)
	if err != nil {
		txRejected.WithLabelValues("update_profile").Inc()
		return nil, err
	}
	h.mirrorProfile(p)
	h.commit("update_profile")
	return copyProfile(p), nil
}

// CreatePost creates a post for the caller.
func (h *Host) CreatePost(caller, contentURI string) (*models.Post, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	post, err := h.graph.CreatePost(caller, contentURI)
	if err != nil {
		txRejected.WithLabelValues("create_post").Inc()
		return nil, err
	}
	h.mirrorPost(post)
	h.mirrorProfileOf(caller)
	h.commit("create_post")
	return copyPost(post), nil
}

// LikePost records the caller's like on a post.
func (h *Host) LikePost(caller string, postID uint64) (*models.Post, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	post, err := h.graph.LikePost(caller, postID)
	if err != nil {
		txRejected.WithLabelValues("like_post").Inc()
		return nil, err
	}
	h.mirrorPost(post)
	h.notify(models.NotificationEvent{
		Kind:      "like",
		Actor:     caller,
		Recipient: post.Author,
		PostID:    post.ID,
	})
	h.commit("like_post")
	return copyPost(post), nil
}

// UnlikePost removes the caller's like from a post.
func (h *Host) UnlikePost(caller string, postID uint64) (*models.Post, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	post, err := h.graph.UnlikePost(caller, postID)
	if err != nil {
		txRejected.WithLabelValues("unlike_post").Inc()
		return nil, err
	}
	h.mirrorPost(post)
	h.commit("unlike_post")
	return copyPost(post), nil
}

// AddComment appends a comment to a post.
func (h *Host) AddComment(caller string, postID uint64, contentURI string) (*models.Comment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, err := h.graph.AddComment(caller, postID, contentURI)
	if err != nil {
		txRejected.WithLabelValues("add_comment").Inc()
		return nil, err
	}
	if h.mirror != nil {
		if err := h.mirror.PutComment(c); err != nil {
			logger.Logger.Warn("mirror comment write failed",
				zap.Uint64("comment_id", c.ID), zap.Error(err))
		}
	}
	h.mirrorPostOf(postID)
	post, _ := h.graph.GetPost(postID)
	h.notify(models.NotificationEvent{
		Kind:      "comment",
		Actor:     caller,
		Recipient: post.Author,
		PostID:    postID,
	})
	h.commit("add_comment")
	cp := *c
	return &cp, nil
}

// Repost creates a repost of an existing post by the caller.
func (h *Host) Repost(caller string, postID uint64) (*models.Post, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	repost, err := h.graph.Repost(caller, postID)
	if err != nil {
		txRejected.WithLabelValues("repost").Inc()
		return nil, err
	}
	h.mirrorPost(repost)
	h.mirrorPostOf(postID)
	h.mirrorProfileOf(caller)
	h.commit("repost")
	return copyPost(repost), nil
}

// Follow inserts the caller → target edge.
func (h *Host) Follow(caller, target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.graph.Follow(caller, target); err != nil {
		txRejected.WithLabelValues("follow").Inc()
		return err
	}
	h.mirrorProfileOf(caller)
	h.mirrorProfileOf(target)
	h.notify(models.NotificationEvent{
		Kind:      "follow",
		Actor:     caller,
		Recipient: target,
	})
	h.commit("follow")
	return nil
}

// Unfollow removes the caller → target edge.
func (h *Host) Unfollow(caller, target string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.graph.Unfollow(caller, target); err != nil {
		txRejected.WithLabelValues("unfollow").Inc()
		return err
	}
	h.mirrorProfileOf(caller)
	h.mirrorProfileOf(target)
	h.commit("unfollow")
	return nil
}

// Read-only queries. They take the same mutex so a reader never observes a
// transaction in flight.

func (h *Host) BalanceOf(account string) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.BalanceOf(account)
}

func (h *Host) TotalSupply() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.TotalSupply()
}

func (h *Host) DailyLimit() int64 {
	return h.ledger.DailyLimit()
}

func (h *Host) GetProfile(account string) (*models.Profile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.graph.GetProfile(account)
	if err != nil {
		return nil, err
	}
	return copyProfile(p), nil
}

func (h *Host) GetPost(id uint64) (*models.Post, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	post, err := h.graph.GetPost(id)
	if err != nil {
		return nil, err
	}
	return copyPost(post), nil
}

func (h *Host) GetComments(postID uint64) ([]*models.Comment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	comments, err := h.graph.GetComments(postID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Comment, len(comments))
	for i, c := range comments {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func (h *Host) PostCount() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.graph.PostCount()
}

// Checkpoint writes a full-state snapshot to the mirror repository.
func (h *Host) Checkpoint() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkpointLocked()
}

// RestoreLatest loads the most recent checkpoint, if any, into the ledger
// and graph. Called once at startup before the host accepts transactions.
func (h *Host) RestoreLatest() error {
	if h.mirror == nil {
		return nil
	}
	cp, err := h.mirror.GetLatestCheckpoint()
	if err != nil {
		return err
	}
	if cp == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger.Restore(cp.Ledger)
	h.graph.Restore(cp.Graph)
	logger.Logger.Info("state restored from checkpoint",
		zap.String("checkpoint_id", cp.ID),
		zap.Int64("total_supply", h.ledger.TotalSupply()))
	return nil
}

func (h *Host) checkpointLocked() error {
	if h.mirror == nil {
		return nil
	}
	now := h.clock()
	cp := &models.Checkpoint{
		ID:        fmt.Sprintf("%d", now.UnixNano()),
		Timestamp: now.UnixMilli(),
		Ledger:    h.ledger.Snapshot(),
		Graph:     h.graph.Snapshot(),
	}
	return h.mirror.PutCheckpoint(cp)
}

// commit runs the shared post-commit bookkeeping for a named operation.
func (h *Host) commit(op string) {
	txCommitted.WithLabelValues(op).Inc()
	h.committed++
	if h.snapshotEvery > 0 && h.committed%h.snapshotEvery == 0 {
		if err := h.checkpointLocked(); err != nil {
			logger.Logger.Warn("periodic checkpoint failed", zap.Error(err))
		}
	}
}

func (h *Host) notify(ev models.NotificationEvent) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ev)
}

func (h *Host) mirrorProfile(p *models.Profile) {
	if h.mirror == nil || p == nil {
		return
	}
	if err := h.mirror.PutProfile(p); err != nil {
		logger.Logger.Warn("mirror profile write failed",
			zap.String("address", p.Address), zap.Error(err))
	}
}

func (h *Host) mirrorProfileOf(account string) {
	if h.mirror == nil {
		return
	}
	if p, err := h.graph.GetProfile(account); err == nil {
		h.mirrorProfile(p)
	}
}

func (h *Host) mirrorPost(post *models.Post) {
	if h.mirror == nil || post == nil {
		return
	}
	if err := h.mirror.PutPost(post); err != nil {
		logger.Logger.Warn("mirror post write failed",
			zap.Uint64("post_id", post.ID), zap.Error(err))
	}
}

func (h *Host) mirrorPostOf(postID uint64) {
	if h.mirror == nil {
		return
	}
	if post, err := h.graph.GetPost(postID); err == nil {
		h.mirrorPost(post)
	}
}

// copyProfile and copyPost detach a record from the graph's interior state
// before it crosses the serialization boundary: callers encode results after
// the mutex is released, while later transactions keep mutating the original.

func copyProfile(p *models.Profile) *models.Profile {
	cp := *p
	return &cp
}

func copyPost(post *models.Post) *models.Post {
	cp := *post
	return &cp
}
