package catalog

// fileConfig mirrors callconv.toml.
type fileConfig struct {
	Target    targetConfig     `toml:"target"`
	Types     []typeConfig     `toml:"type"`
	Functions []functionConfig `toml:"function"`
}

// targetConfig is the [target] table. Pointer fields distinguish "unset"
// from the zero value so CLI overrides and defaults compose.
type targetConfig struct {
	Triple                string `toml:"triple"`
	FirstClassAggregates  bool   `toml:"first_class_aggregates"`
	RegParm               int    `toml:"regparm"`
	SSE                   bool   `toml:"sse"`
	SingleElementAsScalar *bool  `toml:"single_element_as_scalar"`
	SmallStructReturn     bool   `toml:"small_struct_return"`
	MaxRegisterAggregate  int64  `toml:"max_register_aggregate"`
}

type typeConfig struct {
	Name      string        `toml:"name"`
	Kind      string        `toml:"kind"` // struct, union or incomplete
	Packed    bool          `toml:"packed"`
	Align     int           `toml:"align"`
	Qualified bool          `toml:"qualified"`
	Fields    []fieldConfig `toml:"fields"`
}

type fieldConfig struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Bits    int    `toml:"bits"`
	Align   int    `toml:"align"`
	Present string `toml:"present"` // "true", "false" or "unknown"
}

type functionConfig struct {
	Name   string        `toml:"name"`
	Result string        `toml:"result"`
	Params []paramConfig `toml:"params"`
}

type paramConfig struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}
