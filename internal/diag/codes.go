package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Calling-convention lowering
	ABIInfo             Code = 1000
	ABIUnsupportedShape Code = 1001
	ABIConsistency      Code = 1002
	ABICoercion         Code = 1003
	ABIRoundTrip        Code = 1004
	ABIDegradedShape    Code = 1005
	ABIMemoryFault      Code = 1006

	// Catalog input
	CatInfo          Code = 2000
	CatParse         Code = 2001
	CatUnknownKey    Code = 2002
	CatUnknownType   Code = 2003
	CatDuplicateName Code = 2004
	CatBadTypeRef    Code = 2005
	CatBadTarget     Code = 2006
	CatMissingField  Code = 2007
	CatBadValue      Code = 2008

	// Layout
	LayInfo          Code = 3000
	LayRecursive     Code = 3001
	LayIncomplete    Code = 3002
	LayLength        Code = 3003
	LayBitFieldWidth Code = 3004

	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:         "Unknown error",
		ABIInfo:             "Lowering information",
		ABIUnsupportedShape: "no calling-convention rule handles this shape",
		ABIConsistency:      "caller and callee disagree on how a value is passed",
		ABICoercion:         "register word cannot be cast to the declared slot",
		ABIRoundTrip:        "value changed on its way through a simulated call",
		ABIDegradedShape:    "type replaced by a word-sized integer",
		ABIMemoryFault:      "lowering accessed memory outside a value",
		CatInfo:             "Catalog information",
		CatParse:            "malformed catalog file",
		CatUnknownKey:       "unknown catalog key",
		CatUnknownType:      "reference to an undeclared type",
		CatDuplicateName:    "name declared twice",
		CatBadTypeRef:       "malformed type reference",
		CatBadTarget:        "invalid target settings",
		CatMissingField:     "required catalog field is missing",
		CatBadValue:         "catalog value out of range",
		LayInfo:             "Layout information",
		LayRecursive:        "recursive value type has infinite size",
		LayIncomplete:       "type is incomplete",
		LayLength:           "array length does not fit the target",
		LayBitFieldWidth:    "bit-field wider than its type",
		IOInfo:              "I/O information",
		IOLoadFileError:     "I/O load file error",
		IOCacheError:        "lowering cache unavailable",
		ObsInfo:             "Observability information",
		ObsTimings:          "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic == 0:
		return "E0000"
	case ic < 2000:
		return fmt.Sprintf("ABI%04d", ic)
	case ic < 3000:
		return fmt.Sprintf("CAT%04d", ic)
	case ic < 4000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
