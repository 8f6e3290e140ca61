// Package catalog loads callconv.toml, the description of the types and
// function signatures a run lowers.
//
// A catalog has three tables:
//
//	[target]
//	triple = "x86_64-unknown-linux-gnu"
//	first_class_aggregates = false
//
//	[[type]]
//	name   = "Pair"
//	fields = [{ name = "a", type = "int" }, { name = "b", type = "int" }]
//
//	[[function]]
//	name   = "swap"
//	result = "Pair"
//	params = [{ name = "p", type = "Pair" }]
//
// Type references use C spelling with postfix declarators: "int*",
// "short[3]", "char[]" for a variable-length array, "vector float x4" and
// "_Complex double". Identifiers are normalized to NFC before they are
// interned, so canonically equal names denote the same type.
package catalog
