// Package dht defines the interface boundary to the DHT engine.
//
// The engine owns the overlay routing state and the query protocol; this
// package does not implement either. It declares the handle the session
// controller drives (construction, callbacks, enable/tick, bootstrap
// registration, inbound packet dispatch) and the narrow transport sink
// the engine sends through. Concrete engines are injected through a
// Factory at session construction, which keeps the controller testable
// against a stub.
package dht
