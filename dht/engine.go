package dht

import "net"

// HashFunc computes the fixed content digest used for item addresses and
// the persisted-state checksum.
type HashFunc func(data []byte) [20]byte

// SignFunc writes a detached signature of message into signature, which
// the caller has sized for the signature algorithm.
type SignFunc func(signature, message, secretKey []byte)

// VerifyFunc reports whether signature is a valid detached signature of
// message under publicKey.
type VerifyFunc func(signature, message, publicKey []byte) bool

// SaveFunc persists an opaque engine state blob. Persistence is
// best-effort; the engine is not told about failures.
type SaveFunc func(data []byte)

// LoadFunc returns the previously persisted engine state, or an empty
// dictionary when no usable state exists.
type LoadFunc func() map[string]interface{}

// Sink is the transport view the engine sends through. All engine
// traffic goes to already-resolved addresses; SendToHostname exists only
// to complete the interface and must never be reached.
type Sink interface {
	Send(dest *net.UDPAddr, data []byte)
	SendToHostname(host string, data []byte)
	LocalAddr() *net.UDPAddr
}

// Engine is the handle to a DHT protocol implementation. It is not safe
// for concurrent use: after construction every method is called from the
// session's reactor goroutine only.
type Engine interface {
	SetHashCallback(fn HashFunc)
	SetSignCallback(fn SignFunc)
	SetVerifyCallback(fn VerifyFunc)

	// SetVersion sets the two-character client tag and version embedded
	// in outbound messages.
	SetVersion(tag string, major, minor int)

	// SetPingBatching caps how many nodes are pinged per wakeup.
	SetPingBatching(n int)

	// Enable starts or stops protocol activity. rateLimit is the
	// outbound bytes-per-second ceiling.
	Enable(enabled bool, rateLimit int)
	IsEnabled() bool

	// Tick drives time-based maintenance. The session calls it once per
	// second; the engine performs no other time-based work.
	Tick()

	// AddBootstrapNode registers a resolved bootstrap address to seed
	// the routing table when no other nodes are known.
	AddBootstrapNode(addr *net.UDPAddr)

	// HandleInboundPacket processes one datagram already validated as
	// bencoded. Replies are sent through sink.
	HandleInboundPacket(sink Sink, data []byte, src *net.UDPAddr)
}

// Factory constructs an engine wired to the given transport sinks,
// persistence functions and content-hash provider. It is invoked on the
// reactor goroutine, which then owns the returned engine exclusively.
type Factory func(sendSink, recvSink Sink, save SaveFunc, load LoadFunc, hash HashFunc) Engine
