// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

// crcTable is the precomputed CRC-16-CCITT (XMODEM) lookup table.
var crcTable [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// CalculateCRC computes the CRC-16-CCITT (XMODEM) checksum for the given
// data. The device computes this over the message ID and body of each frame.
func CalculateCRC(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>8)^b]
	}
	return crc
}
