package matcher

import "github.com/arkimet-go/arkimet/pkg/types"

// WildcardMatch reports whether candidate satisfies pattern, treating
// any types.Undefined field of pattern as a wildcard (spec §4.1:
// "missing fields match wildcard in queries but are distinct values on
// import"). pattern and candidate must have the same Code; a style
// mismatch never matches.
func WildcardMatch(pattern, candidate types.Item) bool {
	if pattern.Code() != candidate.Code() {
		return false
	}
	switch p := pattern.(type) {
	case types.OriginGRIB1:
		c, ok := candidate.(types.OriginGRIB1)
		return ok && optMatch(p.Centre, c.Centre) && optMatch(p.Subcentre, c.Subcentre) && optMatch(p.Process, c.Process)
	case types.OriginGRIB2:
		c, ok := candidate.(types.OriginGRIB2)
		return ok && optMatch(p.Centre, c.Centre) && optMatch(p.Subcentre, c.Subcentre) &&
			optMatch(p.ProcessType, c.ProcessType) && optMatch(p.BgProcessID, c.BgProcessID) && optMatch(p.ProcessID, c.ProcessID)
	case types.OriginBUFR:
		c, ok := candidate.(types.OriginBUFR)
		return ok && optMatch(p.Centre, c.Centre) && optMatch(p.Subcentre, c.Subcentre)
	case types.OriginODIMH5:
		c, ok := candidate.(types.OriginODIMH5)
		return ok && strMatch(p.WMO, c.WMO) && strMatch(p.Rad, c.Rad) && strMatch(p.Plc, c.Plc)

	case types.ProductGRIB1:
		c, ok := candidate.(types.ProductGRIB1)
		return ok && optMatch(p.Centre, c.Centre) && optMatch(p.Table, c.Table) && optMatch(p.Product, c.Product)
	case types.ProductGRIB2:
		c, ok := candidate.(types.ProductGRIB2)
		return ok && optMatch(p.Centre, c.Centre) && optMatch(p.Discipline, c.Discipline) &&
			optMatch(p.Category, c.Category) && optMatch(p.Number, c.Number)
	case types.ProductBUFR:
		c, ok := candidate.(types.ProductBUFR)
		return ok && optMatch(p.ProductType, c.ProductType) && optMatch(p.Subtype, c.Subtype) &&
			optMatch(p.LocalSubtype, c.LocalSubtype) && vbMatch(p.Extra, c.Extra)
	case types.ProductODIMH5:
		c, ok := candidate.(types.ProductODIMH5)
		return ok && strMatch(p.Object, c.Object) && strMatch(p.Product, c.Product)

	case types.LevelGRIB1:
		c, ok := candidate.(types.LevelGRIB1)
		return ok && optMatch(p.LevelType, c.LevelType) && optMatch(p.L1, c.L1) && optMatch(p.L2, c.L2)
	case types.LevelGRIB2S:
		c, ok := candidate.(types.LevelGRIB2S)
		return ok && optMatch(p.LevelType, c.LevelType) && optMatch(p.Scale, c.Scale) && optMatch(p.Value, c.Value)
	case types.LevelGRIB2D:
		c, ok := candidate.(types.LevelGRIB2D)
		return ok && optMatch(p.LevelType1, c.LevelType1) && optMatch(p.Scale1, c.Scale1) && optMatch(p.Value1, c.Value1) &&
			optMatch(p.LevelType2, c.LevelType2) && optMatch(p.Scale2, c.Scale2) && optMatch(p.Value2, c.Value2)
	case types.LevelODIMH5:
		c, ok := candidate.(types.LevelODIMH5)
		return ok && optMatch(p.Min, c.Min) && optMatch(p.Max, c.Max)

	case types.TimerangeGRIB1:
		c, ok := candidate.(types.TimerangeGRIB1)
		return ok && optMatch(p.Type, c.Type) && optMatch(p.Unit, c.Unit) && optMatch(p.P1, c.P1) && optMatch(p.P2, c.P2)
	case types.TimerangeTimedef:
		c, ok := candidate.(types.TimerangeTimedef)
		return ok && optMatch(p.Step, c.Step) && optMatch(p.StepUnit, c.StepUnit) &&
			optMatch(p.StatType, c.StatType) && optMatch(p.StatLen, c.StatLen) && optMatch(p.StatUnit, c.StatUnit)
	case types.TimerangeBUFR:
		c, ok := candidate.(types.TimerangeBUFR)
		return ok && optMatch(p.Value, c.Value) && optMatch(p.Unit, c.Unit)

	case types.AreaGRIB:
		c, ok := candidate.(types.AreaGRIB)
		return ok && vbMatch(p.Values, c.Values)
	case types.AreaODIMH5:
		c, ok := candidate.(types.AreaODIMH5)
		return ok && vbMatch(p.Values, c.Values)
	case types.AreaVM2:
		c, ok := candidate.(types.AreaVM2)
		return ok && optMatch(p.StationID, c.StationID)

	case types.ProddefGRIB:
		c, ok := candidate.(types.ProddefGRIB)
		return ok && vbMatch(p.Values, c.Values)

	case types.RunMinute:
		c, ok := candidate.(types.RunMinute)
		return ok && optMatch(p.Minute, c.Minute)

	case types.BBoxInvalid:
		_, ok := candidate.(types.BBoxInvalid)
		return ok
	case types.BBoxValid:
		c, ok := candidate.(types.BBoxValid)
		return ok && p.WKT == c.WKT

	case types.QuantityGeneric:
		c, ok := candidate.(types.QuantityGeneric)
		if !ok {
			return false
		}
		want := map[string]bool{}
		for _, n := range p.Names {
			want[n] = true
		}
		have := map[string]bool{}
		for _, n := range c.Names {
			have[n] = true
		}
		for n := range want {
			if !have[n] {
				return false
			}
		}
		return true

	case types.TaskGeneric:
		c, ok := candidate.(types.TaskGeneric)
		return ok && strMatch(p.Value, c.Value)

	case types.ValueItem:
		c, ok := candidate.(types.ValueItem)
		return ok && vbMatch(p.Values, c.Values)

	default:
		return pattern.Equals(candidate)
	}
}

// optMatch treats an undefined pattern field as a wildcard.
func optMatch(pattern, candidate types.OptInt) bool {
	if !pattern.Defined {
		return true
	}
	return pattern.Compare(candidate) == 0
}

// strMatch treats an empty pattern field as a wildcard.
func strMatch(pattern, candidate string) bool {
	if pattern == "" {
		return true
	}
	return pattern == candidate
}

// vbMatch requires every key of pattern to exist in candidate with an
// equal value (spec §3 ValueBag.contains); a nil/empty pattern matches
// anything.
func vbMatch(pattern, candidate *types.ValueBag) bool {
	if pattern == nil || pattern.Len() == 0 {
		return true
	}
	if candidate == nil {
		return false
	}
	return candidate.Contains(pattern)
}
