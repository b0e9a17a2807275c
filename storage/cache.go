package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"notevault-api/domain"
)

type backend interface {
	InsertNote(ctx context.Context, n domain.Note) error
	GetNote(ctx context.Context, userID, id string) (domain.Note, error)
	UpdateNote(ctx context.Context, n domain.Note) error
	DeleteNote(ctx context.Context, userID, id string) error
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)

	InsertFolder(ctx context.Context, f domain.Folder) error
	GetFolder(ctx context.Context, userID, id string) (domain.Folder, error)
	UpdateFolder(ctx context.Context, f domain.Folder) error
	DeleteFolder(ctx context.Context, userID, id string) error
	ListFolders(ctx context.Context, userID string) ([]domain.Folder, error)

	InsertTask(ctx context.Context, t domain.Task) error
	GetTask(ctx context.Context, userID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, userID, id string) error
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
}

// Cache wraps a Storage instance with redis-backed caching for the per-user
// list reads. Mutations pass through and evict the affected user's entry, so
// a stale list lives at most one TTL.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) InsertNote(ctx context.Context, n domain.Note) error {
	if err := c.base.InsertNote(ctx, n); err != nil {
		return err
	}
	c.evict(ctx, CollectionNotes, n.UserID)
	return nil
}

func (c *Cache) GetNote(ctx context.Context, userID, id string) (domain.Note, error) {
	return c.base.GetNote(ctx, userID, id)
}

func (c *Cache) UpdateNote(ctx context.Context, n domain.Note) error {
	if err := c.base.UpdateNote(ctx, n); err != nil {
		return err
	}
	c.evict(ctx, CollectionNotes, n.UserID)
	return nil
}

func (c *Cache) DeleteNote(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteNote(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, CollectionNotes, userID)
	return nil
}

func (c *Cache) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	key := listCacheKey(CollectionNotes, userID)
	var cached []domain.Note
	if c.loadList(ctx, key, &cached) {
		return cached, nil
	}
	notes, err := c.base.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, key, notes)
	return notes, nil
}

func (c *Cache) InsertFolder(ctx context.Context, f domain.Folder) error {
	if err := c.base.InsertFolder(ctx, f); err != nil {
		return err
	}
	c.evict(ctx, CollectionFolders, f.UserID)
	return nil
}

func (c *Cache) GetFolder(ctx context.Context, userID, id string) (domain.Folder, error) {
	return c.base.GetFolder(ctx, userID, id)
}

func (c *Cache) UpdateFolder(ctx context.Context, f domain.Folder) error {
	if err := c.base.UpdateFolder(ctx, f); err != nil {
		return err
	}
	c.evict(ctx, CollectionFolders, f.UserID)
	return nil
}

func (c *Cache) DeleteFolder(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteFolder(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, CollectionFolders, userID)
	return nil
}

func (c *Cache) ListFolders(ctx context.Context, userID string) ([]domain.Folder, error) {
	key := listCacheKey(CollectionFolders, userID)
	var cached []domain.Folder
	if c.loadList(ctx, key, &cached) {
		return cached, nil
	}
	folders, err := c.base.ListFolders(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, key, folders)
	return folders, nil
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.base.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, CollectionTasks, t.UserID)
	return nil
}

func (c *Cache) GetTask(ctx context.Context, userID, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, userID, id)
}

func (c *Cache) UpdateTask(ctx context.Context, t domain.Task) error {
	if err := c.base.UpdateTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, CollectionTasks, t.UserID)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	if err := c.base.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, CollectionTasks, userID)
	return nil
}

func (c *Cache) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	key := listCacheKey(CollectionTasks, userID)
	var cached []domain.Task
	if c.loadList(ctx, key, &cached) {
		return cached, nil
	}
	tasks, err := c.base.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.storeList(ctx, key, tasks)
	return tasks, nil
}

func (c *Cache) loadList(ctx context.Context, key string, dest any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) storeList(ctx context.Context, key string, list any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, collection, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, listCacheKey(collection, userID)).Result()
}

func listCacheKey(collection, userID string) string {
	return collection + ":" + userID
}
