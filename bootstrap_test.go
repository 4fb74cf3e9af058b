package scout

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRegistersAllIPv4Addresses(t *testing.T) {
	engine := &stubEngine{}
	list := newBootstrapList([]BootstrapNode{{Host: "router.example.com", Port: 6881}})
	list.lookup = func(host string) ([]net.IP, error) {
		return []net.IP{net.IPv4(1, 2, 3, 4), net.IPv4(5, 6, 7, 8)}, nil
	}

	list.resolve(engine)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Len(t, engine.nodes, 2)
	assert.Equal(t, "1.2.3.4:6881", engine.nodes[0].String())
	assert.Equal(t, "5.6.7.8:6881", engine.nodes[1].String())
	assert.Empty(t, list.pending)
}

func TestResolveRetainsFailedDescriptors(t *testing.T) {
	engine := &stubEngine{}
	calls := map[string]int{}
	list := newBootstrapList([]BootstrapNode{
		{Host: "good.example.com", Port: 6881},
		{Host: "bad.example.com", Port: 6881},
	})
	list.lookup = func(host string) ([]net.IP, error) {
		calls[host]++
		if host == "good.example.com" {
			return []net.IP{net.IPv4(9, 9, 9, 9)}, nil
		}
		return nil, errors.New("no such host")
	}

	list.resolve(engine)

	require.Len(t, list.pending, 1)
	assert.Equal(t, "bad.example.com", list.pending[0].Host)

	// A second pass retries only the failed descriptor.
	list.resolve(engine)

	assert.Equal(t, 1, calls["good.example.com"])
	assert.Equal(t, 2, calls["bad.example.com"])

	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Len(t, engine.nodes, 1)
}

func TestResolveSkipsNonIPv4Results(t *testing.T) {
	engine := &stubEngine{}
	list := newBootstrapList([]BootstrapNode{{Host: "router.example.com", Port: 6881}})
	list.lookup = func(host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("2001:db8::1"), net.IPv4(1, 2, 3, 4)}, nil
	}

	list.resolve(engine)

	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Len(t, engine.nodes, 1)
	assert.Equal(t, "1.2.3.4:6881", engine.nodes[0].String())
}

func TestResolveEmptyListIsNoop(t *testing.T) {
	engine := &stubEngine{}
	list := newBootstrapList(nil)
	list.lookup = func(host string) ([]net.IP, error) {
		t.Fatal("lookup should not be called")
		return nil, nil
	}
	list.resolve(engine)
	assert.Empty(t, list.pending)
}
