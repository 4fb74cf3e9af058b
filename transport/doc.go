// Package transport implements the UDP socket layer for the DHT session
// and the adaptor that narrows it to the interface the engine expects.
//
// All DHT traffic is plain bencoded datagrams; there is no framing or
// handshake below the engine. The Socket interface exists so the session
// can be driven against an in-memory socket in tests.
package transport
