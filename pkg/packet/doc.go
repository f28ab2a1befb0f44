// Package packet encodes and decodes the fixed-layout control frame
// exchanged between Light and Switch nodes.
package packet

// Frame layout (Size bytes, always transmitted in full):
//
//	+---------+-------------+---------+--------+----------------+
//	| Length  | Address     | Control | Device | Filler         |
//	+---------+-------------+---------+--------+----------------+
//	| 1 byte  | 8 bytes     | 1 byte  | 1 byte | 5 bytes        |
//	+---------+-------------+---------+--------+----------------+
//
// Length is the framing constant Size-1. Address is the sender's node
// address. Control carries the role bit, the command type and the
// command data; the status bit lives in the least significant bit of the
// command data and is only meaningful for CommandStatusReport.
// Device holds the sender's mode bits. Filler bytes are a fixed pattern.
//
// There is no checksum: integrity is whatever the radio layer guarantees.
