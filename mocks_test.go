package scout

import (
	"errors"
	"net"
	"sync"

	"github.com/scoutdht/scout/dht"
	"github.com/scoutdht/scout/overlay"
	"github.com/scoutdht/scout/transport"
)

// stubEngine records every interaction so tests can assert on the exact
// calls the session makes. All fields are mutex-guarded because tests
// read them while the reactor goroutine is live.
type stubEngine struct {
	mu         sync.Mutex
	enabled    bool
	rateLimit  int
	ticks      int
	versionTag string
	pingBatch  int
	nodes      []*net.UDPAddr
	inbound    [][]byte
	save       dht.SaveFunc
	load       dht.LoadFunc
}

func stubFactory(e *stubEngine) dht.Factory {
	return func(sendSink, recvSink dht.Sink, save dht.SaveFunc, load dht.LoadFunc, hash dht.HashFunc) dht.Engine {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.save = save
		e.load = load
		return e
	}
}

func (e *stubEngine) SetHashCallback(dht.HashFunc)     {}
func (e *stubEngine) SetSignCallback(dht.SignFunc)     {}
func (e *stubEngine) SetVerifyCallback(dht.VerifyFunc) {}

func (e *stubEngine) SetVersion(tag string, major, minor int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.versionTag = tag
}

func (e *stubEngine) SetPingBatching(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pingBatch = n
}

func (e *stubEngine) Enable(enabled bool, rateLimit int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
	e.rateLimit = rateLimit
}

func (e *stubEngine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *stubEngine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ticks++
}

func (e *stubEngine) AddBootstrapNode(addr *net.UDPAddr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes = append(e.nodes, addr)
}

func (e *stubEngine) HandleInboundPacket(sink dht.Sink, data []byte, src *net.UDPAddr) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inbound = append(e.inbound, data)
}

func (e *stubEngine) tickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

func (e *stubEngine) inboundCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inbound)
}

func testToken() overlay.ListToken {
	return overlay.ListToken{Blob: []byte("test-token")}
}

// stubStore records overlay calls in arrival order and completes them
// immediately.
type stubStore struct {
	mu   sync.Mutex
	puts [][]byte
	gets []overlay.Hash
}

func (s *stubStore) Put(engine dht.Engine, token overlay.ListToken, contents []byte, done overlay.PutFinished) {
	s.mu.Lock()
	s.puts = append(s.puts, contents)
	s.mu.Unlock()
	if done != nil {
		done()
	}
}

func (s *stubStore) Get(engine dht.Engine, address overlay.Hash, received overlay.ItemReceived) {
	s.mu.Lock()
	s.gets = append(s.gets, address)
	s.mu.Unlock()
	if received != nil {
		received(nil)
	}
}

func (s *stubStore) Synchronize(engine dht.Engine, sharedKey overlay.SecretKey, entries []overlay.Entry,
	onUpdate overlay.EntryUpdated, onFinalize overlay.FinalizeEntries, done overlay.SyncFinished) {
	if onFinalize != nil {
		onFinalize(entries)
	}
	if done != nil {
		done()
	}
}

// fakeSocket is an in-memory Socket. failStarts makes the first N Start
// calls fail, exercising the bind-retry path.
type fakeSocket struct {
	mu         sync.Mutex
	failStarts int
	startCalls int
	bound      *net.UDPAddr
	onPacket   transport.PacketFunc
	sent       [][]byte
	closed     bool
}

func (f *fakeSocket) Start(onPacket transport.PacketFunc, bind *net.UDPAddr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startCalls <= f.failStarts {
		return errors.New("address already in use")
	}
	f.onPacket = onPacket
	f.bound = bind
	return nil
}

func (f *fakeSocket) SendTo(data []byte, dest *net.UDPAddr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeSocket) LocalAddr() *net.UDPAddr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bound
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// inject delivers a datagram as if it arrived off the wire.
func (f *fakeSocket) inject(data []byte, src *net.UDPAddr) {
	f.mu.Lock()
	deliver := f.onPacket
	f.mu.Unlock()
	if deliver != nil {
		deliver(data, src)
	}
}

func (f *fakeSocket) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
