// Package canbus provides the CAN transport primitives the drive node
// runs on: a classical CAN frame type, a Bus interface, an in-memory
// loopback bus for tests and simulations, and a filtered fan-out Mux.
//
// Hardware drivers (SocketCAN and friends) live outside this module and
// plug in through the Bus interface.
package canbus
