package sht

// nextPowerOf2 rounds i up to the next power of two.
// see: https://stackoverflow.com/questions/466204/rounding-up-to-next-power-of-2
func nextPowerOf2(i uint32) uint32 {
	i--
	i |= i >> 1
	i |= i >> 2
	i |= i >> 4
	i |= i >> 8
	i |= i >> 16
	i++
	return i
}
