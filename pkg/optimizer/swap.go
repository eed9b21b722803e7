package optimizer

import (
	"math/rand"

	"github.com/gilchrisn/bus-assignment-service/pkg/models"
)

// None marks the empty side of a swap: the other rider moves into an open seat
const None = -1

// Swap exchanges rider A of bus BusA with rider B of bus BusB. One side may be
// None, turning the swap into a single move.
type Swap struct {
	BusA int `json:"bus_a"`
	BusB int `json:"bus_b"`
	A    int `json:"a"`
	B    int `json:"b"`
}

// eligibleBuses returns the buses holding more than one rider
func eligibleBuses(partition models.Partition) []int {
	eligible := make([]int, 0, len(partition))
	for b, bus := range partition {
		if len(bus) > 1 {
			eligible = append(eligible, b)
		}
	}
	return eligible
}

// CanSwap reports whether at least two buses can give up a rider
func CanSwap(partition models.Partition) bool {
	return len(eligibleBuses(partition)) >= 2
}

// SampleSwap draws a random swap between two distinct buses that each hold more
// than one rider. Each side is replaced by None with probability equal to the
// free-seat fraction of its bus; never both.
func SampleSwap(rng *rand.Rand, busSize int, partition models.Partition) (Swap, bool) {
	eligible := eligibleBuses(partition)
	if len(eligible) < 2 {
		return Swap{}, false
	}

	i := rng.Intn(len(eligible))
	j := rng.Intn(len(eligible) - 1)
	if j >= i {
		j++
	}
	busA, busB := eligible[i], eligible[j]

	emptyA := rng.Float64() < freeFraction(busSize, len(partition[busA]))
	emptyB := rng.Float64() < freeFraction(busSize, len(partition[busB]))
	if emptyA && emptyB {
		if rng.Intn(2) == 0 {
			emptyA = false
		} else {
			emptyB = false
		}
	}

	s := Swap{BusA: busA, BusB: busB, A: None, B: None}
	if !emptyA {
		s.A = partition[busA][rng.Intn(len(partition[busA]))]
	}
	if !emptyB {
		s.B = partition[busB][rng.Intn(len(partition[busB]))]
	}
	return s, true
}

func freeFraction(busSize, riders int) float64 {
	if busSize <= 0 || riders >= busSize {
		return 0
	}
	return float64(busSize-riders) / float64(busSize)
}

// Apply performs the swap in place
func (s Swap) Apply(partition models.Partition) {
	if s.A != None {
		partition.Remove(s.BusA, s.A)
	}
	if s.B != None {
		partition.Remove(s.BusB, s.B)
	}
	if s.A != None {
		partition[s.BusB] = append(partition[s.BusB], s.A)
	}
	if s.B != None {
		partition[s.BusA] = append(partition[s.BusA], s.B)
	}
}
