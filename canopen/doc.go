// Package canopen provides the CANopen glue between a CAN bus and a
// CiA 402 drive node:
//   - COB-ID composition and parsing for the services the node speaks
//   - NMT commands, node states and heartbeat (NMT error control)
//   - Emergency (EMCY) frames
//   - Drive-profile object indices plus controlword/statusword PDO codecs
//   - The expedited SDO subset a drive server answers with
//
// It does not implement a full CANopen stack or object dictionary; the
// pieces here are the composable building blocks the drive node in the
// drive package assembles.
package canopen
