package transport

import "net"

// PacketFunc receives one inbound datagram. The slice is owned by the
// receiver; the socket never touches it again after delivery.
type PacketFunc func(data []byte, src *net.UDPAddr)

// Socket is a bound UDP endpoint. Start binds and begins delivering
// inbound datagrams to onPacket from the socket's reader goroutine;
// SendTo and LocalAddr are safe to call concurrently once Start has
// returned.
type Socket interface {
	Start(onPacket PacketFunc, bind *net.UDPAddr) error
	SendTo(data []byte, dest *net.UDPAddr) error
	LocalAddr() *net.UDPAddr
	Close() error
}
