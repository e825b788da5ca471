// Package clinical turns mood entries into coded observations and derives
// trend, alert and report signals from entry histories.
package clinical

import (
	"strings"
	"time"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/pkg/models"
)

const (
	categorySurveyCode    = "survey"
	categorySurveyDisplay = "Survey"
	colorsCode            = "mood-colors"
	colorsDisplay         = "Mood colors"
	scoreUnit             = "score"
	scoreCode             = "{score}"
)

// Builder converts mood entries to observation records.
type Builder struct {
	cat *catalog.Catalog
}

// NewBuilder creates a builder using the catalog's code tables.
func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{cat: cat}
}

// ToObservation maps one entry to an observation. Optional fields that are
// empty are omitted from the component list.
func (b *Builder) ToObservation(e models.MoodEntry) models.ObservationRecord {
	sys := b.cat.Systems()
	fc := b.cat.FieldCodes()

	obs := models.ObservationRecord{
		ResourceType: "Observation",
		ID:           e.ID,
		Status:       models.ObservationFinal,
		Category: []models.CodeableConcept{{
			Coding: []models.Coding{{System: sys.Category, Code: categorySurveyCode, Display: categorySurveyDisplay}},
		}},
		Code:              concept(sys.LOINC, fc.EmotionalState),
		Subject:           models.Reference{Reference: "Patient/" + e.PatientID},
		EffectiveDateTime: e.Timestamp.UTC().Format(time.RFC3339),
	}

	if code, ok := b.cat.EmotionCode(e.Mood.Primary); ok {
		obs.ValueCodeableConcept = &models.CodeableConcept{
			Coding: []models.Coding{{System: sys.SNOMED, Code: code.Code, Display: code.Display}},
			Text:   e.Mood.Primary,
		}
	}

	obs.Component = append(obs.Component, models.ObservationComponent{
		Code: concept(sys.LOINC, fc.MoodIntensity),
		ValueQuantity: &models.Quantity{
			Value:  float64(e.Mood.Intensity),
			Unit:   scoreUnit,
			System: sys.UCUM,
			Code:   scoreCode,
		},
	})
	if len(e.Colors) > 0 {
		obs.Component = append(obs.Component, models.ObservationComponent{
			Code:        concept(sys.Colors, catalog.Code{Code: colorsCode, Display: colorsDisplay}),
			ValueString: strings.Join(e.Colors, ", "),
		})
	}
	if len(e.CopingStrategies) > 0 {
		obs.Component = append(obs.Component, models.ObservationComponent{
			Code:        concept(sys.LOINC, fc.CopingStrategy),
			ValueString: strings.Join(e.CopingStrategies, ", "),
		})
	}
	if len(e.Triggers) > 0 {
		obs.Component = append(obs.Component, models.ObservationComponent{
			Code:        concept(sys.LOINC, fc.TriggerEvent),
			ValueString: strings.Join(e.Triggers, ", "),
		})
	}
	if e.SupportNeeded {
		obs.Component = append(obs.Component, models.ObservationComponent{
			Code:        concept(sys.LOINC, fc.SupportNeeded),
			ValueString: "true",
		})
	}
	return obs
}

func concept(system string, c catalog.Code) models.CodeableConcept {
	return models.CodeableConcept{
		Coding: []models.Coding{{System: system, Code: c.Code, Display: c.Display}},
	}
}
