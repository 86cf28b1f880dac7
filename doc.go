// Package cia402 implements the CiA 402 drive-profile power state machine
// for a single motorized axis.
//
// It includes:
//   - The eight-state machine with the standard controlword command
//     decoding and statusword derivation
//   - Capability flags (configuration, motion function, HV power, brake)
//     fully derived from the axis state
//   - Narrow StatusSink/LinkSource capabilities so the communication
//     layer's statusword and link state stay externally owned
//
// The communication stack, motion control loops and power-stage drivers
// are external collaborators: they feed the controlword and link status in
// and consume the statusword and flags coming out. The subpackages provide
// a CAN transport and a CANopen drive node built around one axis.
package cia402
