// Package archive uploads session logs to blob storage as self-contained
// JSON documents. An archive carries both the replayed instances and the
// original records, so a session can be inspected or re-replayed without
// the local log
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gocloud.dev/blob"

	"github.com/kode4food/waypost/internal/eventlog"
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/events"
	"github.com/kode4food/waypost/pkg/log"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

type (
	// Archiver writes session archives to a blob bucket. The bucket URL
	// decides the backend; drivers are linked in by the importing command
	Archiver struct {
		bucket BucketWriter
		owned  *blob.Bucket
		reg    *catalog.Registry
		prefix string
		prune  bool
		clock  func() time.Time
	}

	// BucketWriter is the slice of the bucket surface the archiver needs.
	// *blob.Bucket satisfies it
	BucketWriter interface {
		WriteAll(context.Context, string, []byte, *blob.WriterOptions) error
	}

	// Option configures an Archiver
	Option func(*Archiver)

	archiveDocument struct {
		SessionID  api.SessionID       `json:"session_id"`
		ArchivedAt time.Time           `json:"archived_at"`
		Instances  []*api.FlowInstance `json:"instances"`
		Events     []json.RawMessage   `json:"events"`
	}
)

// uploadMaxElapsed bounds the total time spent retrying a failed upload
const uploadMaxElapsed = 30 * time.Second

var (
	ErrBucketRequired = errors.New("bucket is required")
	ErrStoreRequired  = errors.New("store is required")
	ErrOpenBucket     = errors.New("failed to open archive bucket")
	ErrUpload         = errors.New("failed to upload session archive")
)

// New opens the bucket at the given URL and returns an Archiver writing
// under the key prefix
func New(
	ctx context.Context, bucketURL, prefix string, opts ...Option,
) (*Archiver, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenBucket, err)
	}
	a, err := NewWithBucket(bucket, prefix, opts...)
	if err != nil {
		return nil, err
	}
	a.owned = bucket
	return a, nil
}

// NewWithBucket returns an Archiver over an already-open bucket
func NewWithBucket(
	bucket BucketWriter, prefix string, opts ...Option,
) (*Archiver, error) {
	if bucket == nil {
		return nil, ErrBucketRequired
	}
	a := &Archiver{
		bucket: bucket,
		prefix: prefix,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// WithRegistry settles each archived instance's completion flag against
// its definition before upload
func WithRegistry(reg *catalog.Registry) Option {
	return func(a *Archiver) {
		a.reg = reg
	}
}

// WithPrune removes the local session log after a successful upload
func WithPrune(prune bool) Option {
	return func(a *Archiver) {
		a.prune = prune
	}
}

// WithClock overrides the archived-at timestamp source
func WithClock(clock func() time.Time) Option {
	return func(a *Archiver) {
		a.clock = clock
	}
}

// Close releases the bucket when the Archiver opened it itself. Buckets
// passed to NewWithBucket belong to the caller
func (a *Archiver) Close() error {
	if a.owned == nil {
		return nil
	}
	return a.owned.Close()
}

// ArchiveSession replays a session's log, uploads the archive document to
// <prefix>/<session>.json, and returns the object key. The local log is
// only pruned once the upload has succeeded
func (a *Archiver) ArchiveSession(
	ctx context.Context, store *eventlog.Store, session api.SessionID,
) (string, error) {
	if store == nil {
		return "", ErrStoreRequired
	}

	evs, err := store.ReadSession(ctx, session)
	if err != nil {
		return "", err
	}

	st := events.Replay(evs)
	insts := st.Snapshot()
	a.settle(insts)

	doc := archiveDocument{
		SessionID:  session,
		ArchivedAt: a.clock().UTC(),
		Instances:  insts,
		Events:     rawRecords(evs),
	}
	data, err := json.Marshal(&doc)
	if err != nil {
		return "", err
	}

	key := buildArchiveKey(a.prefix, session)
	if err := a.upload(ctx, key, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	slog.Info("Session archived",
		log.SessionID(session),
		slog.String("key", key),
		log.Count(len(evs)))

	if a.prune {
		if err := store.RemoveSession(session); err != nil {
			slog.Warn("Failed to prune archived session log",
				log.SessionID(session),
				log.Error(err))
		}
	}
	return key, nil
}

// upload retries transient bucket failures with exponential backoff until
// the max elapsed time passes or the context is canceled
func (a *Archiver) upload(ctx context.Context, key string, data []byte) error {
	bo := newUploadBackoff()
	return backoff.Retry(func() error {
		return a.bucket.WriteAll(ctx, key, data, nil)
	}, backoff.WithContext(bo, ctx))
}

func (a *Archiver) settle(insts []*api.FlowInstance) {
	for _, inst := range insts {
		var def *api.Definition
		if a.reg != nil {
			def, _ = a.reg.Get(inst.FlowID)
		}
		inst.Complete = inst.IsComplete(def)
	}
}

func newUploadBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always start from a fresh one
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = uploadMaxElapsed
	return bo
}

func buildArchiveKey(prefix string, session api.SessionID) string {
	name := string(api.SanitizeID(session))
	if name == "" {
		name = "unnamed"
	}
	if prefix == "" {
		return name + ".json"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + name + ".json"
}

func rawRecords(evs []*api.Event) []json.RawMessage {
	if len(evs) == 0 {
		return nil
	}
	res := make([]json.RawMessage, 0, len(evs))
	for _, ev := range evs {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		res = append(res, data)
	}
	return res
}
