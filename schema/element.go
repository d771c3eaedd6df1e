// Package schema defines the element record, its validation rules, and its
// mapping to and from stored documents.
package schema

import "github.com/google/uuid"

// Element is a validated chemical element record. Pointer fields are
// optional; nil means unknown, never zero.
type Element struct {
	// ID is assigned by the store. uuid.Nil means not yet stored.
	ID uuid.UUID `json:"-"`

	AtomicNumber            int    `json:"atomic_number"`
	Period                  int    `json:"period"`
	Group                   *int   `json:"group,omitempty"`
	Name                    string `json:"name"`
	Symbol                  string `json:"symbol"`
	Block                   string `json:"block"`
	GroupBlock              string `json:"group_block"`
	ElectronicConfiguration string `json:"electronic_configuration"`

	StandardState   *string `json:"standard_state,omitempty"`
	BondingType     *string `json:"bonding_type,omitempty"`
	CPKHexColor     *string `json:"cpk_hex_color,omitempty"`
	OxidationStates *string `json:"oxidation_states,omitempty"`
	YearDiscovered  *string `json:"year_discovered,omitempty"`

	AtomicMass        *float64 `json:"atomic_mass,omitempty"`
	AtomicRadius      *float64 `json:"atomic_radius,omitempty"`
	BoilingPoint      *float64 `json:"boiling_point,omitempty"`
	Density           *float64 `json:"density,omitempty"`
	ElectronAffinity  *float64 `json:"electron_affinity,omitempty"`
	Electronegativity *float64 `json:"electronegativity,omitempty"`
	IonRadius         *float64 `json:"ion_radius,omitempty"`
	IonizationEnergy  *float64 `json:"ionization_energy,omitempty"`
	MeltingPoint      *float64 `json:"melting_point,omitempty"`
	VanDerWaalsRadius *float64 `json:"van_der_waals_radius,omitempty"`
}

// View is the response shape of an element: the record plus its identifier
// rendered as a string.
type View struct {
	ID string `json:"id"`
	Element
}

// Input is an unvalidated record as decoded from a request body.
type Input map[string]any
