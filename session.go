package scout

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/bencode"

	"github.com/scoutdht/scout/crypto"
	"github.com/scoutdht/scout/dht"
	"github.com/scoutdht/scout/overlay"
	"github.com/scoutdht/scout/state"
	"github.com/scoutdht/scout/transport"
)

// ErrBindFailed is returned by Start when the socket could not be bound
// after exhausting the retry budget.
var ErrBindFailed = errors.New("failed to bind DHT socket")

// ErrAlreadyStarted is returned by Start on any call after the first. A
// session starts once.
var ErrAlreadyStarted = errors.New("session already started")

// tickInterval is the engine's only periodic heartbeat.
const tickInterval = time.Second

// packetBacklog bounds inbound datagrams queued for the reactor. The
// overlay tolerates drops, so a full queue sheds load instead of
// blocking the socket reader.
const packetBacklog = 64

type inboundPacket struct {
	data []byte
	src  *net.UDPAddr
}

// Session is one overlay participant. It owns the socket, the transport
// adaptor and the engine; after construction those are touched only by
// the reactor goroutine, so no locking guards engine state. Public
// methods are safe from any goroutine.
type Session struct {
	opts *Options
	port int

	tasks     taskQueue
	packets   chan inboundPacket
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	started bool

	bootstrap  *bootstrapList
	stateStore *state.Store
	clk        clock.Clock

	// Reactor-owned; written during startup, read by Close only after
	// the reactor has exited.
	sock    transport.Socket
	adaptor *transport.Adaptor
	engine  dht.Engine
}

// NewSession creates a session from opts. The engine factory and the
// overlay store are required.
func NewSession(opts *Options) (*Session, error) {
	if opts.NewEngine == nil {
		return nil, errors.New("scout: Options.NewEngine is required")
	}
	if opts.Store == nil {
		return nil, errors.New("scout: Options.Store is required")
	}

	// Fill defaults for zero-valued fields so an Options built by hand
	// behaves like one from NewOptions. The caller's struct is not
	// mutated.
	o := *opts
	if o.StatePath == "" {
		o.StatePath = state.DefaultFileName
	}
	if o.Port == 0 {
		o.Port = portRangeStart + rand.IntN(portRangeSize)
	}
	if o.RateLimit == 0 {
		o.RateLimit = defaultRateLimit
	}
	if o.BindAttempts <= 0 {
		o.BindAttempts = defaultBindAttempts
	}
	if o.NewSocket == nil {
		o.NewSocket = func() transport.Socket { return transport.NewUDPSocket() }
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}

	return &Session{
		opts:       &o,
		port:       o.Port,
		tasks:      taskQueue{signal: make(chan struct{}, 1)},
		packets:    make(chan inboundPacket, packetBacklog),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		bootstrap:  newBootstrapList(o.BootstrapNodes),
		stateStore: state.NewStore(o.StatePath),
		clk:        o.Clock,
	}, nil
}

// Start spawns the reactor goroutine and blocks until it reports either
// a bound socket with an enabled engine, or a terminal bind failure.
// Exactly one readiness signal is produced per session.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	ready := make(chan error, 1)
	go s.run(ready)
	return <-ready
}

// Put stores contents under token on the overlay. It returns
// immediately; done fires on the reactor goroutine.
func (s *Session) Put(token overlay.ListToken, contents []byte, done overlay.PutFinished) {
	s.tasks.push(func() {
		s.opts.Store.Put(s.engine, token, contents, done)
	})
}

// Get retrieves the item stored at address. It returns immediately;
// received fires on the reactor goroutine.
func (s *Session) Get(address overlay.Hash, received overlay.ItemReceived) {
	s.tasks.push(func() {
		s.opts.Store.Get(s.engine, address, received)
	})
}

// Synchronize reconciles entries against the overlay list scoped by
// sharedKey. It returns immediately; all three callbacks fire on the
// reactor goroutine and must not block.
func (s *Session) Synchronize(sharedKey overlay.SecretKey, entries []overlay.Entry,
	onUpdate overlay.EntryUpdated, onFinalize overlay.FinalizeEntries, done overlay.SyncFinished) {
	s.tasks.push(func() {
		s.opts.Store.Synchronize(s.engine, sharedKey, entries, onUpdate, onFinalize, done)
	})
}

// LocalPort reports the bound external port. Valid once Start has
// returned successfully.
func (s *Session) LocalPort() int {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started || s.sock == nil {
		return 0
	}
	if addr := s.sock.LocalAddr(); addr != nil {
		return addr.Port
	}
	return 0
}

// Close stops the reactor, waits for it to exit, disables the adaptor
// and releases the socket. Queued tasks that have not started are
// discarded; a task already running is allowed to finish.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()

		close(s.quit)
		if started {
			<-s.done
		}
		if s.adaptor != nil {
			s.adaptor.SetEnabled(false)
		}
		if s.sock != nil {
			_ = s.sock.Close()
		}
	})
	return nil
}

// run is the reactor goroutine: startup, then the event loop. The
// engine is constructed here and never escapes this goroutine.
func (s *Session) run(ready chan<- error) {
	defer close(s.done)

	sock := s.opts.NewSocket()
	adaptor := transport.NewAdaptor(sock)
	s.sock = sock
	s.adaptor = adaptor

	engine := s.opts.NewEngine(adaptor, adaptor, s.stateStore.Save, s.stateStore.Load, crypto.Sum)
	engine.SetHashCallback(crypto.Sum)
	engine.SetSignCallback(crypto.Sign)
	engine.SetVerifyCallback(crypto.Verify)
	engine.SetVersion(versionTag, versionMajor, versionMinor)
	engine.SetPingBatching(pingBatchSize)
	s.engine = engine

	if err := s.bindSocket(sock); err != nil {
		ready <- err
		return
	}

	s.bootstrap.resolve(engine)

	engine.Enable(true, s.opts.RateLimit)

	// The tick timer is the engine's only heartbeat; it rearms itself
	// after every fire.
	tick := s.clk.Timer(tickInterval)
	defer tick.Stop()

	logrus.WithFields(logrus.Fields{
		"function": "run",
		"port":     s.port,
	}).Info("DHT session started")

	ready <- nil

	for {
		select {
		case <-s.quit:
			return
		case <-s.tasks.signal:
			for _, task := range s.tasks.drain() {
				s.runGuarded("task", task)
			}
		case pkt := <-s.packets:
			s.runGuarded("incoming_packet", func() { s.handlePacket(pkt) })
		case <-tick.C:
			s.runGuarded("tick", engine.Tick)
			tick.Reset(tickInterval)
		}
	}
}

// bindSocket binds the external port, shifting to the next port on
// failure up to the configured attempt budget.
func (s *Session) bindSocket(sock transport.Socket) error {
	attempts := s.opts.BindAttempts
	for {
		err := sock.Start(s.onPacket, &net.UDPAddr{IP: net.IPv4zero, Port: s.port})
		if err == nil {
			return nil
		}

		s.port++
		attempts--
		if attempts == 0 {
			logrus.WithFields(logrus.Fields{
				"function": "bindSocket",
				"port":     s.port,
				"error":    err.Error(),
			}).Error("Failed to bind DHT socket")
			return fmt.Errorf("%w: %v", ErrBindFailed, err)
		}
		logrus.WithFields(logrus.Fields{
			"function": "bindSocket",
			"port":     s.port,
		}).Debug("Port busy; retrying with next DHT port")
	}
}

// onPacket runs on the socket's reader goroutine. It hands the datagram
// to the reactor, shedding load if the reactor is behind.
func (s *Session) onPacket(data []byte, src *net.UDPAddr) {
	select {
	case s.packets <- inboundPacket{data: data, src: src}:
	default:
	}
}

// handlePacket validates one inbound datagram and hands it to the
// engine. Unparseable packets are background noise on a public overlay
// and are dropped without comment; packets arriving while the engine is
// disabled are not shown to it at all.
func (s *Session) handlePacket(pkt inboundPacket) {
	var msg map[string]bencode.RawMessage
	if err := bencode.DecodeBytes(pkt.data, &msg); err != nil {
		return
	}

	if !s.engine.IsEnabled() {
		return
	}
	s.engine.HandleInboundPacket(s.adaptor, pkt.data, pkt.src)
}

// runGuarded executes fn, converting a panic into a log entry. Nothing
// that happens inside a reactor callback is allowed to kill the reactor.
func (s *Session) runGuarded(where string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": where,
				"panic":    fmt.Sprint(r),
			}).Error("Recovered panic in reactor callback")
		}
	}()
	fn()
}

// taskQueue is an unbounded FIFO of posted work. push may be called from
// any goroutine; drain only from the reactor.
type taskQueue struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

func (q *taskQueue) push(task func()) {
	q.mu.Lock()
	q.queue = append(q.queue, task)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *taskQueue) drain() []func() {
	q.mu.Lock()
	tasks := q.queue
	q.queue = nil
	q.mu.Unlock()
	return tasks
}
