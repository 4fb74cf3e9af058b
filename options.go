package scout

import (
	"math/rand/v2"

	"github.com/benbjohnson/clock"

	"github.com/scoutdht/scout/dht"
	"github.com/scoutdht/scout/overlay"
	"github.com/scoutdht/scout/state"
	"github.com/scoutdht/scout/transport"
)

const (
	// defaultRateLimit is the engine's outbound bytes-per-second ceiling.
	defaultRateLimit = 8000

	// defaultBindAttempts bounds the port-bind retry loop.
	defaultBindAttempts = 10

	// pingBatchSize caps nodes pinged per engine wakeup to limit
	// burstiness.
	pingBatchSize = 6

	// External ports are randomized in [32768, 49151) and shift upward
	// during bind retries.
	portRangeStart = 32768
	portRangeSize  = 16384
)

// Engine version tag embedded in outbound messages.
const (
	versionTag   = "sc"
	versionMajor = 0
	versionMinor = 1
)

// BootstrapNode is a well-known router used to join the overlay when no
// routing state exists yet.
type BootstrapNode struct {
	Host string
	Port uint16
}

// DefaultBootstrapNodes are the public routers a session seeds from
// unless configured otherwise.
var DefaultBootstrapNodes = []BootstrapNode{
	{Host: "router.utorrent.com", Port: 6881},
	{Host: "router.bittorrent.com", Port: 6881},
}

// Options configures a Session. NewEngine and Store are required; every
// other field has a working default from NewOptions.
type Options struct {
	// NewEngine constructs the DHT engine on the reactor goroutine.
	NewEngine dht.Factory

	// Store is the overlay storage collaborator Put/Get/Synchronize
	// forward to.
	Store overlay.Store

	// StatePath is the routing-state file. Defaults to "dht.dat" in the
	// working directory.
	StatePath string

	// Port is the external UDP port. Zero picks a random port in
	// [32768, 49151).
	Port int

	RateLimit      int
	BindAttempts   int
	BootstrapNodes []BootstrapNode

	// NewSocket builds the UDP socket; tests substitute an in-memory
	// implementation.
	NewSocket func() transport.Socket

	// Clock drives the periodic tick timer; tests substitute a mock.
	Clock clock.Clock
}

// NewOptions returns Options with production defaults. The caller still
// has to supply NewEngine and Store.
func NewOptions() *Options {
	return &Options{
		StatePath:      state.DefaultFileName,
		Port:           portRangeStart + rand.IntN(portRangeSize),
		RateLimit:      defaultRateLimit,
		BindAttempts:   defaultBindAttempts,
		BootstrapNodes: DefaultBootstrapNodes,
		NewSocket:      func() transport.Socket { return transport.NewUDPSocket() },
		Clock:          clock.New(),
	}
}
