package schema

type kind int

const (
	kindInt kind = iota
	kindFloat
	kindString
)

func (k kind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindFloat:
		return "number"
	default:
		return "string"
	}
}

// field describes one element attribute. get returns nil when the
// attribute is absent.
type field struct {
	name     string
	kind     kind
	required bool
	// encoded marks integers persisted in string form.
	encoded bool
	set     func(e *Element, v any)
	get     func(e *Element) any
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatField(name string, ptr func(e *Element) **float64) field {
	return field{
		name: name,
		kind: kindFloat,
		set:  func(e *Element, v any) { *ptr(e) = floatPtr(v.(float64)) },
		get:  func(e *Element) any { return optFloat(*ptr(e)) },
	}
}

func optStringField(name string, ptr func(e *Element) **string) field {
	return field{
		name: name,
		kind: kindString,
		set:  func(e *Element, v any) { *ptr(e) = stringPtr(v.(string)) },
		get:  func(e *Element) any { return optString(*ptr(e)) },
	}
}

func stringField(name string, ptr func(e *Element) *string) field {
	return field{
		name:     name,
		kind:     kindString,
		required: true,
		set:      func(e *Element, v any) { *ptr(e) = v.(string) },
		get:      func(e *Element) any { return *ptr(e) },
	}
}

// fields lists every element attribute in alphabetical order, which is also
// the order validation errors are reported in.
var fields = []field{
	floatField("atomic_mass", func(e *Element) **float64 { return &e.AtomicMass }),
	{
		name: "atomic_number", kind: kindInt, required: true, encoded: true,
		set: func(e *Element, v any) { e.AtomicNumber = v.(int) },
		get: func(e *Element) any { return e.AtomicNumber },
	},
	floatField("atomic_radius", func(e *Element) **float64 { return &e.AtomicRadius }),
	stringField("block", func(e *Element) *string { return &e.Block }),
	floatField("boiling_point", func(e *Element) **float64 { return &e.BoilingPoint }),
	optStringField("bonding_type", func(e *Element) **string { return &e.BondingType }),
	optStringField("cpk_hex_color", func(e *Element) **string { return &e.CPKHexColor }),
	floatField("density", func(e *Element) **float64 { return &e.Density }),
	floatField("electron_affinity", func(e *Element) **float64 { return &e.ElectronAffinity }),
	floatField("electronegativity", func(e *Element) **float64 { return &e.Electronegativity }),
	stringField("electronic_configuration", func(e *Element) *string { return &e.ElectronicConfiguration }),
	{
		name: "group", kind: kindInt, encoded: true,
		set: func(e *Element, v any) { e.Group = intPtr(v.(int)) },
		get: func(e *Element) any { return optInt(e.Group) },
	},
	stringField("group_block", func(e *Element) *string { return &e.GroupBlock }),
	floatField("ion_radius", func(e *Element) **float64 { return &e.IonRadius }),
	floatField("ionization_energy", func(e *Element) **float64 { return &e.IonizationEnergy }),
	floatField("melting_point", func(e *Element) **float64 { return &e.MeltingPoint }),
	stringField("name", func(e *Element) *string { return &e.Name }),
	optStringField("oxidation_states", func(e *Element) **string { return &e.OxidationStates }),
	{
		name: "period", kind: kindInt, required: true, encoded: true,
		set: func(e *Element, v any) { e.Period = v.(int) },
		get: func(e *Element) any { return e.Period },
	},
	optStringField("standard_state", func(e *Element) **string { return &e.StandardState }),
	stringField("symbol", func(e *Element) *string { return &e.Symbol }),
	floatField("van_der_waals_radius", func(e *Element) **float64 { return &e.VanDerWaalsRadius }),
	optStringField("year_discovered", func(e *Element) **string { return &e.YearDiscovered }),
}
