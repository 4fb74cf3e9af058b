package scout

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/scoutdht/scout/dht"
)

// resolveTimeout bounds one bootstrap hostname lookup.
const resolveTimeout = 10 * time.Second

// lookupFunc resolves a hostname to its IPv4 addresses. Injectable for
// tests.
type lookupFunc func(host string) ([]net.IP, error)

func lookupIPv4(host string) ([]net.IP, error) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	return net.DefaultResolver.LookupIP(ctx, "ip4", host)
}

// bootstrapList tracks the bootstrap descriptors that still need
// resolution. Descriptors are removed once their hostname resolves so a
// later pass never re-issues the lookup; failed descriptors stay pending
// and are retried on the next pass. Only the reactor goroutine touches
// the list.
type bootstrapList struct {
	pending []BootstrapNode
	lookup  lookupFunc
}

func newBootstrapList(nodes []BootstrapNode) *bootstrapList {
	pending := make([]BootstrapNode, len(nodes))
	copy(pending, nodes)
	return &bootstrapList{pending: pending, lookup: lookupIPv4}
}

// resolve runs one resolution pass, registering every IPv4 address of
// each resolvable descriptor with the engine as a bootstrap candidate.
func (b *bootstrapList) resolve(engine dht.Engine) {
	remaining := b.pending[:0]
	for _, node := range b.pending {
		ips, err := b.lookup(node.Host)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "resolve",
				"host":     node.Host,
				"error":    err.Error(),
			}).Error("Failed to resolve bootstrap node")
			remaining = append(remaining, node)
			continue
		}

		logrus.WithFields(logrus.Fields{
			"function":  "resolve",
			"host":      node.Host,
			"addresses": len(ips),
		}).Debug("DHT router resolved")

		for _, ip := range ips {
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			engine.AddBootstrapNode(&net.UDPAddr{IP: ip4, Port: int(node.Port)})
		}
	}
	b.pending = remaining
}
