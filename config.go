package noct

import "fmt"

// Config is a path-keyed, dynamically typed settings bag, the same shape
// the teacher grammar/compiler configuration used, repointed at the
// runtime's own knobs (spec §6.3).
type Config map[string]*cfgVal

// NewConfig creates a configuration primed with every default the VM,
// GC, and JIT backend need.
func NewConfig() *Config {
	m := make(Config)
	m.SetBool("jit.enable", true)
	m.SetInt("jit.threshold", 1000)
	m.SetInt("jit.code_region_size", 16<<20)
	m.SetInt("gc.nursery_size", int(DefaultGCConfig().NurserySize))
	m.SetInt("gc.graduate_size", int(DefaultGCConfig().GraduateSize))
	m.SetInt("gc.tenure_size", int(DefaultGCConfig().TenureSize))
	m.SetInt("gc.lop_threshold", int(DefaultGCConfig().LargeObjectThreshold))
	m.SetInt("gc.promotion_threshold", DefaultGCConfig().PromotionThreshold)
	return &m
}

type cfgValType int

const (
	cfgValTypeUndefined cfgValType = iota
	cfgValTypeBool
	cfgValTypeInt
	cfgValTypeString
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValTypeUndefined: "undefined",
		cfgValTypeBool:      "bool",
		cfgValTypeInt:       "int",
		cfgValTypeString:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asInt    int
	asString string
}

func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValTypeUndefined {
		panic(fmt.Sprintf("can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, v bool) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeBool)
	(*c)[path].asBool = v
}

func (c *Config) SetInt(path string, v int) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeInt)
	(*c)[path].asInt = v
}

func (c *Config) SetString(path string, v string) {
	(*c)[path] = &cfgVal{}
	(*c)[path].assignType(cfgValTypeString)
	(*c)[path].asString = v
}

func (c *Config) GetBool(path string) bool {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeBool)
		return val.asBool
	}
	panic(fmt.Sprintf("bool setting `%s` does not exist", path))
}

func (c *Config) GetInt(path string) int {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeInt)
		return val.asInt
	}
	panic(fmt.Sprintf("int setting `%s` does not exist", path))
}

func (c *Config) GetString(path string) string {
	if val, ok := (*c)[path]; ok {
		val.checkType(cfgValTypeString)
		return val.asString
	}
	panic(fmt.Sprintf("string setting `%s` does not exist", path))
}

// GCConfig extracts the GC region-size knobs, falling back to
// DefaultGCConfig for any key the caller didn't set.
func (c *Config) GCConfig() GCConfig {
	d := DefaultGCConfig()
	get := func(path string, fallback uint64) uint64 {
		if _, ok := (*c)[path]; ok {
			return uint64(c.GetInt(path))
		}
		return fallback
	}
	promo := d.PromotionThreshold
	if _, ok := (*c)["gc.promotion_threshold"]; ok {
		promo = c.GetInt("gc.promotion_threshold")
	}
	return GCConfig{
		NurserySize:          get("gc.nursery_size", d.NurserySize),
		GraduateSize:         get("gc.graduate_size", d.GraduateSize),
		TenureSize:           get("gc.tenure_size", d.TenureSize),
		LargeObjectThreshold: get("gc.lop_threshold", d.LargeObjectThreshold),
		PromotionThreshold:   promo,
	}
}

// JITConfig extracts the JIT policy knobs.
func (c *Config) JITConfig() JITConfig {
	enable := true
	if _, ok := (*c)["jit.enable"]; ok {
		enable = c.GetBool("jit.enable")
	}
	threshold := 1000
	if _, ok := (*c)["jit.threshold"]; ok {
		threshold = c.GetInt("jit.threshold")
	}
	regionSize := 16 << 20
	if _, ok := (*c)["jit.code_region_size"]; ok {
		regionSize = c.GetInt("jit.code_region_size")
	}
	return JITConfig{Enable: enable, Threshold: threshold, CodeRegionSize: regionSize}
}
