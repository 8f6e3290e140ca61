package abi

// RegisterClass is the System V x86-64 eightbyte class.
type RegisterClass uint8

const (
	NoClass    RegisterClass = iota // padding: occupies space, carries no data
	Integer                         // general-purpose registers
	SSE                             // vector registers
	SSEUp                           // upper half of the preceding SSE register
	X87                             // returned via the x87 FPU
	X87Up                           // upper part of an X87 value
	ComplexX87                      // complex long double
	Memory                          // passed and returned in memory
)

func (r RegisterClass) String() string {
	switch r {
	case Integer:
		return "INTEGER"
	case SSE:
		return "SSE"
	case SSEUp:
		return "SSEUP"
	case X87:
		return "X87"
	case X87Up:
		return "X87UP"
	case ComplexX87:
		return "COMPLEX_X87"
	case NoClass:
		return "NO_CLASS"
	case Memory:
		return "MEMORY"
	}
	return "UNKNOWN"
}

// Merge combines the class already assigned to an eightbyte with the class
// of another leaf that overlaps it.
func Merge(have, next RegisterClass) RegisterClass {
	switch {
	case have == next:
		return have
	case have == NoClass:
		return next
	case next == NoClass:
		return have
	case have == Memory || next == Memory:
		return Memory
	case have == Integer || next == Integer:
		return Integer
	case isX87Family(have) || isX87Family(next):
		return Memory
	default:
		return SSE
	}
}

func isX87Family(r RegisterClass) bool {
	return r == X87 || r == X87Up || r == ComplexX87
}

// PostMerge applies the whole-aggregate cleanup rules to the eightbyte
// classes of a value of size bytes, in place.
func PostMerge(classes []RegisterClass, size uint64) {
	memory := func() {
		for i := range classes {
			classes[i] = Memory
		}
	}
	for i, c := range classes {
		if c == Memory {
			memory()
			return
		}
		if c == X87Up && (i == 0 || (classes[i-1] != X87 && classes[i-1] != X87Up)) {
			memory()
			return
		}
	}
	if size > 16 {
		if len(classes) == 0 || classes[0] != SSE {
			memory()
			return
		}
		for _, c := range classes[1:] {
			if c != SSEUp {
				memory()
				return
			}
		}
	}
	for i, c := range classes {
		if c == SSEUp && (i == 0 || (classes[i-1] != SSE && classes[i-1] != SSEUp)) {
			classes[i] = SSE
		}
	}
}
