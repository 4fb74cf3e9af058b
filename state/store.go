// Package state persists the DHT engine's routing state to a local file
// with a trailing integrity digest.
//
// The on-disk format is a bencoded dictionary optionally followed by a
// 24-byte trailer: a 20-byte SHA-1 digest of the dictionary bytes plus
// the literal tag "hash". Files without the trailer load with no
// integrity check, which keeps older state files readable.
package state

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zeebo/bencode"

	"github.com/scoutdht/scout/crypto"
)

// DefaultFileName is the state file name used by a session unless
// configured otherwise.
const DefaultFileName = "dht.dat"

var trailerTag = []byte("hash")

// trailerSize is the digest plus its tag.
const trailerSize = crypto.DigestSize + 4

// Dict is a decoded bencoded dictionary.
type Dict = map[string]interface{}

// Store reads and writes the engine state file. Callers serialize access
// themselves; a session only touches its store from the reactor
// goroutine.
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes data to the state file and truncates it to exactly that
// length. Saving is best-effort: every failure is logged and swallowed,
// since losing persisted state only costs a slower re-bootstrap.
func (s *Store) Save(data []byte) {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Save",
			"path":     s.path,
			"error":    err.Error(),
		}).Error("Failed to save DHT state to disk")
		return
	}
	defer f.Close()

	n, err := f.Write(data)
	if err != nil || n != len(data) {
		logrus.WithFields(logrus.Fields{
			"function": "Save",
			"path":     s.path,
			"written":  n,
			"expected": len(data),
		}).Error("Short write saving DHT state")
	}

	if err := f.Truncate(int64(len(data))); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Save",
			"path":     s.path,
			"error":    err.Error(),
		}).Error("Failed to truncate DHT state file")
	}
}

// Load reads and decodes the state file. Any failure — missing file,
// empty file, digest mismatch, undecodable content — yields an empty
// dictionary: the engine rebuilds its routing table from bootstrap
// alone, so a bad state file is never fatal.
//
// The scratch buffer may hold routing secrets and is wiped on every exit
// path.
func (s *Store) Load() Dict {
	data, err := os.ReadFile(s.path)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     s.path,
			"error":    err.Error(),
		}).Error("Failed to load DHT state")
		return Dict{}
	}
	defer crypto.ZeroBytes(data)

	if len(data) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     s.path,
		}).Error("Failed to load DHT state: empty file")
		return Dict{}
	}

	payload := data
	if len(data) >= trailerSize && bytes.Equal(data[len(data)-4:], trailerTag) {
		payload = data[:len(data)-trailerSize]
		digest := crypto.Sum(payload)
		if !bytes.Equal(digest[:], data[len(payload):len(payload)+crypto.DigestSize]) {
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"path":     s.path,
			}).Error("Failed to load DHT state: invalid check-sum")
			return Dict{}
		}
	}

	var dict Dict
	if err := bencode.DecodeBytes(payload, &dict); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     s.path,
			"error":    err.Error(),
		}).Error("Failed to parse DHT state")
		return Dict{}
	}
	if dict == nil {
		dict = Dict{}
	}
	return dict
}

// AppendDigest returns payload followed by the integrity trailer that
// Load verifies.
func AppendDigest(payload []byte) []byte {
	digest := crypto.Sum(payload)
	out := make([]byte, 0, len(payload)+trailerSize)
	out = append(out, payload...)
	out = append(out, digest[:]...)
	out = append(out, trailerTag...)
	return out
}
