package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ierr "go-shopfeed/internal/errors"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type snapEvent struct {
	snap Snapshot
	err  error
}

type snapCh chan snapEvent

// snapshotIterator hides the difference between query and document listeners.
type snapshotIterator interface {
	Next() (Snapshot, error)
	Stop()
}

// FirestoreClient maps tree paths onto firestore as collection/document/field...:
// the first segment names a collection, the second a document, and the rest a
// nested field path inside that document.
type FirestoreClient struct {
	*firestore.Client
	writeTimeout time.Duration
}

var _ Client = FirestoreClient{}

func New(client *firestore.Client, writeTimeout time.Duration) FirestoreClient {
	if writeTimeout <= 0 {
		writeTimeout = time.Second * 120
	}
	return FirestoreClient{
		Client:       client,
		writeTimeout: writeTimeout,
	}
}

type location struct {
	path       string
	collection string
	doc        string
	fields     []string
}

func (l location) fieldPath() firestore.FieldPath {
	return firestore.FieldPath(l.fields)
}

func locate(path string) (location, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return location{}, err
	}

	loc := location{path: JoinPath(segs...), collection: segs[0]}
	if len(segs) > 1 {
		loc.doc = segs[1]
	}
	if len(segs) > 2 {
		loc.fields = segs[2:]
	}
	return loc, nil
}

// Subscribe listens to the collection or document behind path and forwards
// every snapshot. Listener errors are sticky in firestore, so the first one is
// delivered and the subscription ends.
func (c FirestoreClient) Subscribe(ctx context.Context, path string) <-chan SnapshotEvent {

	ch := make(chan SnapshotEvent)

	loc, err := locate(path)
	if err != nil {
		go func() {
			defer close(ch)
			select {
			case ch <- SnapshotEvent{Err: err}:
			case <-ctx.Done():
			}
		}()
		return ch
	}

	var it snapshotIterator
	if loc.doc == "" {
		it = queryIterator{path: loc.path, it: c.Collection(loc.collection).Snapshots(ctx)}
	} else {
		it = docIterator{path: loc.path, fields: loc.fields, it: c.Collection(loc.collection).Doc(loc.doc).Snapshots(ctx)}
	}

	go func() {
		defer close(ch)

		eventCh := registerEventListener(ctx, it)
		for event := range eventCh {
			if event.err != nil {
				if isContextErr(event.err) {
					return
				}

				log.Error().Err(event.err).Str("path", loc.path).Msg("error reading snapshots")
				select {
				case ch <- SnapshotEvent{Err: event.err}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case ch <- SnapshotEvent{Snapshot: event.snap}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}

// registerEventListener keeps the listener open until context is cancelled
func registerEventListener(ctx context.Context, it snapshotIterator) <-chan snapEvent {

	threshold := 5
	retry := 0
	c := make(snapCh)
	go func() {
		defer close(c)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err == iterator.Done {
				return
			}

			delivered := false
			for !delivered {
				select {
				case <-ctx.Done():
					return
				case c <- snapEvent{snap, err}:
					delivered = true
					retry = 0
				case <-time.After(time.Second * 10):
					log.Error().Msg("timedout to deliver a snapshot to the client")
					retry++
					if retry > threshold {
						return
					}
				}
			}

			if err != nil {
				return
			}
		}
	}()

	return c
}

type queryIterator struct {
	path string
	it   *firestore.QuerySnapshotIterator
}

func (q queryIterator) Next() (Snapshot, error) {
	qs, err := q.it.Next()
	if err != nil {
		return Snapshot{}, err
	}

	docs, err := qs.Documents.GetAll()
	if err != nil {
		return Snapshot{}, err
	}
	return collectionSnapshot(q.path, docs)
}

func (q queryIterator) Stop() {
	q.it.Stop()
}

type docIterator struct {
	path   string
	fields []string
	it     *firestore.DocumentSnapshotIterator
}

func (d docIterator) Next() (Snapshot, error) {
	ds, err := d.it.Next()
	if err != nil {
		return Snapshot{}, err
	}
	return documentSnapshot(d.path, ds, d.fields)
}

func (d docIterator) Stop() {
	d.it.Stop()
}

func collectionSnapshot(path string, docs []*firestore.DocumentSnapshot) (Snapshot, error) {
	data := make(map[string]map[string]interface{}, len(docs))
	for _, doc := range docs {
		if doc == nil || !doc.Exists() {
			continue
		}
		data[doc.Ref.ID] = doc.Data()
	}
	return collectionValue(path, data)
}

func documentSnapshot(path string, ds *firestore.DocumentSnapshot, fields []string) (Snapshot, error) {
	if ds == nil || !ds.Exists() {
		return Snapshot{Path: path}, nil
	}
	return documentValue(path, ds.Data(), fields)
}

// collectionValue keys every document by its id.
func collectionValue(path string, docs map[string]map[string]interface{}) (Snapshot, error) {
	children := make(map[string]interface{}, len(docs))
	for id, data := range docs {
		children[id] = data
	}

	value, err := normalize(children)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Value: value}, nil
}

// documentValue picks the nested field at fields out of a document.
func documentValue(path string, data map[string]interface{}, fields []string) (Snapshot, error) {
	value, err := normalize(valueAt(data, fields))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Value: value}, nil
}

func (c FirestoreClient) Get(ctx context.Context, path string) (Snapshot, error) {
	loc, err := locate(path)
	if err != nil {
		return Snapshot{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	if loc.doc == "" {
		docs, err := c.Collection(loc.collection).Documents(ctx).GetAll()
		if err != nil {
			return Snapshot{}, fmt.Errorf("get %s: %w", loc.path, err)
		}
		return collectionSnapshot(loc.path, docs)
	}

	ds, err := c.Collection(loc.collection).Doc(loc.doc).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Snapshot{Path: loc.path}, nil
		}
		return Snapshot{}, fmt.Errorf("get %s: %w", loc.path, err)
	}
	return documentSnapshot(loc.path, ds, loc.fields)
}

func (c FirestoreClient) Set(ctx context.Context, path string, value interface{}) error {
	if value == nil {
		return c.Remove(ctx, path)
	}
	return c.SetMany(ctx, map[string]interface{}{path: value})
}

// SetMany commits all values in one batch.
func (c FirestoreClient) SetMany(ctx context.Context, values map[string]interface{}) error {
	if len(values) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	batch := c.Client.Batch()
	for path, value := range values {
		loc, err := locate(path)
		if err != nil {
			return err
		}

		if loc.doc == "" {
			return fmt.Errorf("set %s: %w: cannot replace a whole collection", loc.path, ierr.Unsupported)
		}

		v, err := normalize(value)
		if err != nil {
			return fmt.Errorf("set %s: %w", loc.path, err)
		}

		docRef := c.Collection(loc.collection).Doc(loc.doc)
		switch {
		case len(loc.fields) == 0 && v == nil:
			batch.Delete(docRef)
		case len(loc.fields) == 0:
			data, ok := v.(map[string]interface{})
			if !ok {
				return fmt.Errorf("set %s: %w: a document must be an object", loc.path, ierr.Unsupported)
			}
			batch.Set(docRef, data)
		case v == nil:
			batch.Set(docRef, nest(loc.fields, firestore.Delete), firestore.Merge(loc.fieldPath()))
		default:
			batch.Set(docRef, nest(loc.fields, v), firestore.Merge(loc.fieldPath()))
		}
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("set many: %w", err)
	}
	return nil
}

func (c FirestoreClient) Remove(ctx context.Context, path string) error {
	loc, err := locate(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	switch {
	case loc.doc == "":
		c.DeleteColl(ctx, c.Collection(loc.collection))
		return nil
	case len(loc.fields) == 0:
		_, err = c.DeleteDoc(ctx, c.Collection(loc.collection).Doc(loc.doc))
	default:
		_, err = c.UpdateDoc(ctx, c.Collection(loc.collection).Doc(loc.doc),
			[]firestore.Update{{FieldPath: loc.fieldPath(), Value: firestore.Delete}})
		if status.Code(err) == codes.NotFound {
			err = nil
		}
	}

	if err != nil {
		return fmt.Errorf("remove %s: %w", loc.path, err)
	}
	return nil
}

func (c FirestoreClient) Increment(ctx context.Context, path string, delta int64) error {
	loc, err := locate(path)
	if err != nil {
		return err
	}
	if len(loc.fields) == 0 {
		return fmt.Errorf("increment %s: %w: only fields can be incremented", loc.path, ierr.Unsupported)
	}

	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	docRef := c.Collection(loc.collection).Doc(loc.doc)
	_, err = docRef.Set(ctx, nest(loc.fields, firestore.Increment(delta)), firestore.Merge(loc.fieldPath()))
	if err != nil {
		return fmt.Errorf("increment %s: %w", loc.path, err)
	}
	return nil
}

func (c FirestoreClient) PushKey(path string) string {
	return NewKey()
}

func (c FirestoreClient) UpdateDoc(ctx context.Context, docRef *firestore.DocumentRef, updates []firestore.Update, preconds ...firestore.Precondition) (_ *firestore.WriteResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()

	return docRef.Update(ctx, updates, preconds...)
}

func (c FirestoreClient) DeleteDoc(ctx context.Context, docRef *firestore.DocumentRef) (_ *firestore.WriteResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	colls, err := docRef.Collections(ctx).GetAll()
	if err != nil {
		log.Error().Err(err).Msgf("failed to get all collections of the doc %s", docRef.Path)
		return nil, err
	}

	for _, collRef := range colls {
		// must not be concurrent otherwise subcolls will not be cleaned up due to context cancellation
		c.DeleteColl(ctx, collRef)
	}

	return docRef.Delete(ctx)
}

func (c FirestoreClient) DeleteColl(ctx context.Context, collRef *firestore.CollectionRef) {
	// Recursively delete all subcollections
	docs := collRef.Documents(ctx)
	defer docs.Stop()
	for {
		doc, err := docs.Next()
		if err == iterator.Done {
			return
		}
		if err != nil {
			log.Error().Err(err).Msgf("failed to iterate collection %s", collRef.Path)
			return
		}
		c.DeleteDoc(ctx, doc.Ref)
	}
}

// The listener errors are not always wrapped, so errors.Is() alone does not work
func isContextErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code := status.Code(err); code == codes.Canceled || code == codes.DeadlineExceeded {
		return true
	}
	return strings.Contains(err.Error(), "context canceled") || strings.Contains(err.Error(), "context deadline exceeded")
}
