package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Collection names double as table names and change-feed channel segments.
const (
	CollectionNotes   = "notes"
	CollectionFolders = "folders"
	CollectionTasks   = "tasks"
)

// ErrNotFound is returned when a document does not exist in the caller's
// partition. Records owned by other users are indistinguishable from missing
// ones at this layer.
var ErrNotFound = errors.New("document not found")

// Event describes a single document mutation, published on the change feed so
// live stores can refresh their snapshots.
type Event struct {
	Collection string `json:"collection"`
	UserID     string `json:"userId"`
	ID         string `json:"id"`
	Type       string `json:"type"`
}

// Storage provides access to the three document tables. Every document is
// keyed by (PartitionKey = owner user id, RowKey = document id), so all reads
// and scans are partition-scoped to a single user.
type Storage struct {
	notesTable   *aztables.Client
	foldersTable *aztables.Client
	tasksTable   *aztables.Client

	redis         *redis.Client
	channelPrefix string
	logger        *log.Logger
}

// New creates a Storage instance from an Azure Tables connection string. The
// redis client is used only to publish change events; pass nil to disable the
// change feed (tests exercising plain persistence do this).
func New(connStr, notesTable, foldersTable, tasksTable string, rc *redis.Client, channelPrefix string, logger *log.Logger) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		notesTable:    svc.NewClient(notesTable),
		foldersTable:  svc.NewClient(foldersTable),
		tasksTable:    svc.NewClient(tasksTable),
		redis:         rc,
		channelPrefix: channelPrefix,
		logger:        logger,
	}, nil
}

// ChangeChannel returns the pub/sub channel carrying change events for one
// user's view of a collection.
func ChangeChannel(prefix, collection, userID string) string {
	return prefix + ":" + collection + ":" + userID
}

// publish sends a change event on the feed. Publish failures are logged and
// swallowed: the mutation already committed, and subscribers fall back to the
// next refresh rather than observing an error.
func (s *Storage) publish(ctx context.Context, collection, userID, id, eventType string) {
	if s.redis == nil {
		return
	}
	data, err := sonic.Marshal(Event{Collection: collection, UserID: userID, ID: id, Type: eventType})
	if err != nil {
		return
	}
	channel := ChangeChannel(s.channelPrefix, collection, userID)
	if err := s.redis.Publish(ctx, channel, data).Err(); err != nil && s.logger != nil {
		s.logger.WithFields(log.Fields{"channel": channel, "error": err.Error()}).Warn("change feed publish failed")
	}
}

func (s *Storage) listEntities(ctx context.Context, table *aztables.Client, userID string) ([][]byte, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, resp.Entities...)
	}
	return out, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}
