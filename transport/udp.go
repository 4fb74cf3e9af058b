package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxDatagramSize bounds one inbound DHT message. Engine messages are
// small bencoded dictionaries; anything larger is truncated by the OS
// and fails bencode validation upstream.
const maxDatagramSize = 2048

// readDeadline paces the reader loop so shutdown is observed promptly.
const readDeadline = 100 * time.Millisecond

// UDPSocket implements Socket over an IPv4 UDP connection.
type UDPSocket struct {
	mu     sync.RWMutex
	conn   *net.UDPConn
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUDPSocket creates an unbound socket. Start must be called before
// any other method.
func NewUDPSocket() *UDPSocket {
	ctx, cancel := context.WithCancel(context.Background())
	return &UDPSocket{ctx: ctx, cancel: cancel}
}

// Start binds the socket to bind and begins the reader loop.
func (s *UDPSocket) Start(onPacket PacketFunc, bind *net.UDPAddr) error {
	conn, err := net.ListenUDP("udp4", bind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"address":  conn.LocalAddr().String(),
	}).Debug("UDP socket bound")

	s.wg.Add(1)
	go s.readLoop(conn, onPacket)

	return nil
}

// readLoop delivers inbound datagrams until the socket is closed.
func (s *UDPSocket) readLoop(conn *net.UDPConn, onPacket PacketFunc) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		// A fresh buffer per datagram: the receiver parses it in place
		// and may hold it past this iteration.
		buf := make([]byte, maxDatagramSize)
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-s.ctx.Done():
			default:
				logrus.WithFields(logrus.Fields{
					"function": "readLoop",
					"error":    err.Error(),
				}).Debug("UDP read failed")
			}
			continue
		}

		onPacket(buf[:n], src)
	}
}

// SendTo issues a single non-blocking datagram send.
func (s *UDPSocket) SendTo(data []byte, dest *net.UDPAddr) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return net.ErrClosed
	}
	_, err := conn.WriteToUDP(data, dest)
	return err
}

// LocalAddr returns the bound local endpoint, or nil before Start.
func (s *UDPSocket) LocalAddr() *net.UDPAddr {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return nil
	}
	return conn.LocalAddr().(*net.UDPAddr)
}

// Close stops the reader loop and releases the socket.
func (s *UDPSocket) Close() error {
	s.cancel()

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.wg.Wait()
	return err
}
