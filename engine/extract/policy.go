package extract

import (
	"github.com/Carmen-Shannon/oxy-swarm/common"
)

// Default capacity policy constants.
const (
	DefaultMatrixCapacity  = 8192
	DefaultMatrixIncrement = 4096
	DefaultMatrixMargin    = 1024
	DefaultColorCapacity   = 8192
)

// CapacityPolicy decides the buffer capacity for a frame given the current capacity and live count.
type CapacityPolicy interface {
	// Initial returns the capacity allocated before the first frame.
	//
	// Returns:
	//   - int: the initial capacity
	Initial() int

	// Next returns the capacity to use for live entries. A result equal to capacity means no resize.
	//
	// Parameters:
	//   - capacity: the current capacity
	//   - live: the number of entries this frame
	//
	// Returns:
	//   - int: the capacity to use, always >= live
	Next(capacity, live int) int
}

// MatrixPolicy grows in fixed increments while keeping Margin free slots, and never shrinks.
type MatrixPolicy struct {
	InitialCapacity int
	Increment       int
	Margin          int
}

var _ CapacityPolicy = MatrixPolicy{}

// DefaultMatrixPolicy returns the stock matrix policy.
func DefaultMatrixPolicy() MatrixPolicy {
	return MatrixPolicy{
		InitialCapacity: DefaultMatrixCapacity,
		Increment:       DefaultMatrixIncrement,
		Margin:          DefaultMatrixMargin,
	}
}

func (p MatrixPolicy) Initial() int {
	return p.InitialCapacity
}

func (p MatrixPolicy) Next(capacity, live int) int {
	if live > capacity-p.Margin {
		return max(capacity+p.Increment, live+p.Margin)
	}
	return capacity
}

// ColorPolicy grows to the next power of two above the live count and shrinks back down
// (never below Floor) once usage drops under half of capacity.
type ColorPolicy struct {
	Floor int
}

var _ CapacityPolicy = ColorPolicy{}

// DefaultColorPolicy returns the stock color policy.
func DefaultColorPolicy() ColorPolicy {
	return ColorPolicy{Floor: DefaultColorCapacity}
}

func (p ColorPolicy) Initial() int {
	return p.Floor
}

func (p ColorPolicy) Next(capacity, live int) int {
	switch {
	case live > capacity:
		return common.NextPowerOfTwo(live)
	case 2*live < capacity && capacity > p.Floor:
		return max(common.NextPowerOfTwo(live), p.Floor)
	default:
		return capacity
	}
}
