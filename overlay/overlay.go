// Package overlay defines the interface boundary to the item store and
// synchronization protocol layered on top of the DHT engine.
//
// The protocol itself (mutable item records, list tokens, entry
// reconciliation) is an external collaborator; this package declares the
// value types and the Store surface the session controller forwards
// put/get/synchronize calls to.
package overlay

import "github.com/scoutdht/scout/dht"

// Hash is a content address on the overlay.
type Hash [20]byte

// SecretKey is the shared key scoping a synchronized entry list.
type SecretKey []byte

// ListToken authorizes appending to a remote entry list. It is issued by
// the store and opaque to the session.
type ListToken struct {
	Blob []byte
}

// Entry is one synchronized item.
type Entry struct {
	Sequence int64
	Contents []byte
}

// EntryUpdated is invoked once per entry that changed during a
// synchronize pass.
type EntryUpdated func(entry *Entry)

// FinalizeEntries is invoked with the reconciled entry list before a
// synchronize pass completes.
type FinalizeEntries func(entries []Entry)

// SyncFinished signals the end of a synchronize pass.
type SyncFinished func()

// PutFinished signals that a put has been stored on the overlay.
type PutFinished func()

// ItemReceived delivers the contents retrieved by a get.
type ItemReceived func(contents []byte)

// Store is the overlay storage collaborator. Every method runs on the
// session's reactor goroutine with the engine handle it was started
// with; completion callbacks fire on that same goroutine.
type Store interface {
	Synchronize(engine dht.Engine, sharedKey SecretKey, entries []Entry,
		onUpdate EntryUpdated, onFinalize FinalizeEntries, onDone SyncFinished)
	Put(engine dht.Engine, token ListToken, contents []byte, onDone PutFinished)
	Get(engine dht.Engine, address Hash, onItem ItemReceived)
}
