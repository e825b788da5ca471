// Package models contains domain models for emocheck.
package models

// Coding is one code from a code system.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// CodeableConcept is a set of codings with optional text.
type CodeableConcept struct {
	Text   string   `json:"text,omitempty"`
	Coding []Coding `json:"coding"`
}

// Reference points at another resource, e.g. "Patient/123".
type Reference struct {
	Reference string `json:"reference"`
}

// Quantity is a measured value with unit.
type Quantity struct {
	Unit   string  `json:"unit"`
	System string  `json:"system"`
	Code   string  `json:"code"`
	Value  float64 `json:"value"`
}

// ObservationComponent is one coded field of an observation.
type ObservationComponent struct {
	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueString          string           `json:"valueString,omitempty"`
	Code                 CodeableConcept  `json:"code"`
}

// ObservationStatus is the status of an exported observation.
type ObservationStatus string

const (
	ObservationFinal       ObservationStatus = "final"
	ObservationPreliminary ObservationStatus = "preliminary"
	ObservationCancelled   ObservationStatus = "cancelled"
)

// ObservationRecord is a FHIR-flavoured Observation for one mood entry.
// It mirrors the fields a consuming EHR expects; it is not a certified profile.
type ObservationRecord struct {
	ValueCodeableConcept *CodeableConcept       `json:"valueCodeableConcept,omitempty"`
	ResourceType         string                 `json:"resourceType"`
	ID                   string                 `json:"id"`
	Status               ObservationStatus      `json:"status"`
	EffectiveDateTime    string                 `json:"effectiveDateTime"`
	Subject              Reference              `json:"subject"`
	Code                 CodeableConcept        `json:"code"`
	Category             []CodeableConcept      `json:"category"`
	Component            []ObservationComponent `json:"component,omitempty"`
}

// FindComponent returns the component coded with code, if present.
func (o *ObservationRecord) FindComponent(code string) (*ObservationComponent, bool) {
	for i := range o.Component {
		for _, c := range o.Component[i].Code.Coding {
			if c.Code == code {
				return &o.Component[i], true
			}
		}
	}
	return nil, false
}
