package layout

// Target describes the data-layout side of an ABI target: pointer width and
// the size and alignment quirks of the C scalar types.
type Target struct {
	Triple   string // e.g. "x86_64-unknown-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes

	// Alignment of 8-byte integers and doubles inside records.
	Int64Align  int
	DoubleAlign int

	LongDoubleSize  int
	LongDoubleAlign int

	// MaxVectorAlign caps the natural alignment of SIMD vectors.
	MaxVectorAlign int
	BigEndian      bool
}

// X86_64LinuxGNU is the System V x86-64 data layout.
func X86_64LinuxGNU() Target {
	return Target{
		Triple:          "x86_64-unknown-linux-gnu",
		PtrSize:         8,
		PtrAlign:        8,
		Int64Align:      8,
		DoubleAlign:     8,
		LongDoubleSize:  16,
		LongDoubleAlign: 16,
		MaxVectorAlign:  32,
	}
}

// I386LinuxGNU is the i386 System V data layout. 8-byte scalars are only
// 4-byte aligned inside records.
func I386LinuxGNU() Target {
	return Target{
		Triple:          "i386-unknown-linux-gnu",
		PtrSize:         4,
		PtrAlign:        4,
		Int64Align:      4,
		DoubleAlign:     4,
		LongDoubleSize:  12,
		LongDoubleAlign: 4,
		MaxVectorAlign:  16,
	}
}

// MIPSEABI is the 32-bit MIPS EABI data layout with a 64-bit FPU.
func MIPSEABI() Target {
	return Target{
		Triple:          "mips-unknown-eabi",
		PtrSize:         4,
		PtrAlign:        4,
		Int64Align:      8,
		DoubleAlign:     8,
		LongDoubleSize:  16,
		LongDoubleAlign: 8,
		MaxVectorAlign:  8,
		BigEndian:       true,
	}
}
