// Package scout operates a peer's participation in a DHT overlay
// network.
//
// A Session owns the UDP transport, persists the engine's routing state
// across restarts, resolves the well-known bootstrap routers, and runs a
// single reactor goroutine that all DHT work is confined to. Application
// code stores and retrieves key-addressed items through the asynchronous
// Put, Get and Synchronize calls, which are safe from any goroutine.
//
// Example:
//
//	opts := scout.NewOptions()
//	opts.NewEngine = myEngineFactory
//	opts.Store = myOverlayStore
//
//	session, err := scout.NewSession(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	session.Get(address, func(contents []byte) {
//	    // runs on the reactor goroutine; do not block here
//	})
package scout
