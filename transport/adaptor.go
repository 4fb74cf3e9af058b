package transport

import (
	"net"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Adaptor narrows a Socket to the three-operation sink the DHT engine
// sends through. All traffic via the adaptor is DHT traffic.
//
// The adaptor can be disabled during teardown so the engine stops
// producing outbound packets while the socket is still draining; a
// disabled adaptor drops sends silently.
type Adaptor struct {
	sock    Socket
	enabled atomic.Bool
}

// NewAdaptor wraps sock. The adaptor starts enabled.
func NewAdaptor(sock Socket) *Adaptor {
	a := &Adaptor{sock: sock}
	a.enabled.Store(true)
	return a
}

// SetEnabled toggles whether sends reach the socket.
func (a *Adaptor) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// Send issues one datagram to an already-resolved address. Failures are
// logged and swallowed; the engine owns any retry semantics.
func (a *Adaptor) Send(dest *net.UDPAddr, data []byte) {
	if !a.enabled.Load() {
		return
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.WithFields(logrus.Fields{
			"function": "Send",
			"dest":     dest.String(),
			"payload":  printable(data),
		}).Debug("DHT outbound")
	}

	if err := a.sock.SendTo(data, dest); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Send",
			"dest":     dest.String(),
			"error":    err.Error(),
		}).Error("Failed to send DHT packet")
	}
}

// SendToHostname must never be reached: the engine only sends to
// addresses the session has already resolved.
func (a *Adaptor) SendToHostname(host string, data []byte) {
	if !a.enabled.Load() {
		return
	}
	panic("dht transport adaptor: no support for sending to a hostname")
}

// LocalAddr returns the socket's bound endpoint, recomputed on each call
// so a rebind is always reflected.
func (a *Adaptor) LocalAddr() *net.UDPAddr {
	return a.sock.LocalAddr()
}

// printable renders a datagram for debug logs, mapping non-printable
// bytes to '.'.
func printable(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 0x20 && b < 0x7f {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
