package repository

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/n1k61n/web3-sosial/db"
	"github.com/n1k61n/web3-sosial/models"
)

// Key prefixes for the mirror keyspace.
const (
	profilePrefix    = "profile:"
	postPrefix       = "post:"
	commentPrefix    = "comment:"
	checkpointPrefix = "checkpoint:"
)

// Mirror is the off-ledger store the host writes committed state into for
// external readers, plus the checkpoint slot used across restarts. It
// abstracts the storage layer from the execution host.
type Mirror interface {
	PutProfile(p *models.Profile) error
	PutPost(post *models.Post) error
	PutComment(c *models.Comment) error
	GetProfile(address string) (*models.Profile, error)
	GetPost(id uint64) (*models.Post, error)
	PutCheckpoint(cp *models.Checkpoint) error
	GetLatestCheckpoint() (*models.Checkpoint, error)
}

// LevelDBMirror implements Mirror on top of the LevelDB wrapper, storing
// each record as JSON under a prefixed key.
type LevelDBMirror struct {
	db *db.LevelDB
}

// NewLevelDBMirror creates and returns a new LevelDBMirror instance.
func NewLevelDBMirror(db *db.LevelDB) *LevelDBMirror {
	return &LevelDBMirror{db: db}
}

// PutProfile stores the latest committed profile record for an address.
func (r *LevelDBMirror) PutProfile(p *models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(profilePrefix+p.Address), data)
}

// PutPost stores the latest committed post record.
func (r *LevelDBMirror) PutPost(post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(postPrefix+strconv.FormatUint(post.ID, 10)), data)
}

// PutComment stores a committed comment record.
func (r *LevelDBMirror) PutComment(c *models.Comment) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	key := commentPrefix + strconv.FormatUint(c.PostID, 10) + ":" + strconv.FormatUint(c.ID, 10)
	return r.db.Put([]byte(key), data)
}

// GetProfile retrieves a mirrored profile by address.
func (r *LevelDBMirror) GetProfile(address string) (*models.Profile, error) {
	data, err := r.db.Get([]byte(profilePrefix + address))
	if err != nil {
		return nil, err
	}
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPost retrieves a mirrored post by ID.
func (r *LevelDBMirror) GetPost(id uint64) (*models.Post, error) {
	data, err := r.db.Get([]byte(postPrefix + strconv.FormatUint(id, 10)))
	if err != nil {
		return nil, err
	}
	var post models.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PutCheckpoint stores a full-state checkpoint under its ID.
func (r *LevelDBMirror) PutCheckpoint(cp *models.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(checkpointPrefix+cp.ID), data)
}

// GetLatestCheckpoint scans the checkpoint keyspace and returns the most
// recent checkpoint, or nil when none has been written yet.
func (r *LevelDBMirror) GetLatestCheckpoint() (*models.Checkpoint, error) {
	iter := r.db.NewIterator()
	defer iter.Release()

	var latest *models.Checkpoint
	for iter.Next() {
		if !strings.HasPrefix(string(iter.Key()), checkpointPrefix) {
			continue
		}
		var cp models.Checkpoint
		if err := json.Unmarshal(iter.Value(), &cp); err != nil {
			return nil, err
		}
		if latest == nil || cp.Timestamp > latest.Timestamp {
			latest = &cp
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return latest, nil
}
