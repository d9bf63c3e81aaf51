// Package specsheet turns OCR output, BOM configuration and product
// knowledge into a structured product specsheet via one LLM extraction call
// with deterministic validation, normalization and fallback.
package specsheet

// Placeholder marks a field the source material does not answer.
const Placeholder = "待填写"

// Features groups the headline capability figures.
type Features struct {
	Capacity string `json:"capacity"`
	Jets     string `json:"jets"`
	Pumps    string `json:"pumps"`
}

// Specification is one ordered row of the spec table. Exactly one field is
// set per row; the array carries them in the fixed sequence CabinetColor,
// ShellColor, DryWeight, WaterCapacity, Pump, Controls.
type Specification struct {
	CabinetColor  string `json:"CabinetColor,omitempty"`
	ShellColor    string `json:"ShellColor,omitempty"`
	DryWeight     string `json:"DryWeight,omitempty"`
	WaterCapacity string `json:"WaterCapacity,omitempty"`
	Pump          string `json:"Pump,omitempty"`
	Controls      string `json:"Controls,omitempty"`
}

// Images references the two artwork slots of a specsheet.
type Images struct {
	Product    string `json:"product"`
	Background string `json:"background"`
}

// Data is the full specsheet payload.
type Data struct {
	ProductTitle       string          `json:"productTitle"`
	Features           Features        `json:"features"`
	Measurements       string          `json:"measurements"`
	PremiumFeatures    []string        `json:"premiumFeatures"`
	InsulationFeatures []string        `json:"insulationFeatures"`
	ExtraFeatures      []string        `json:"extraFeatures"`
	Specifications     []Specification `json:"Specifications"`
	SmartWater         []string        `json:"smartWater"`
	Images             Images          `json:"images"`
}

// specRowCount is the fixed length of the Specifications array.
const specRowCount = 6

// Default builds a specsheet where every field the extraction could not
// answer carries the placeholder. titleHint seeds the product title when
// known.
func Default(titleHint string) Data {
	title := titleHint
	if title == "" {
		title = Placeholder
	}
	return Data{
		ProductTitle: title,
		Features: Features{
			Capacity: Placeholder,
			Jets:     Placeholder,
			Pumps:    Placeholder,
		},
		Measurements:       Placeholder,
		PremiumFeatures:    []string{},
		InsulationFeatures: []string{},
		ExtraFeatures:      []string{},
		Specifications: []Specification{
			{CabinetColor: Placeholder},
			{ShellColor: Placeholder},
			{DryWeight: Placeholder},
			{WaterCapacity: Placeholder},
			{Pump: Placeholder},
			{Controls: Placeholder},
		},
		SmartWater: []string{},
		Images: Images{
			Product:    Placeholder,
			Background: Placeholder,
		},
	}
}

// specValue returns the single populated slot of a row.
func specValue(row Specification) string {
	for _, v := range []string{
		row.CabinetColor, row.ShellColor, row.DryWeight,
		row.WaterCapacity, row.Pump, row.Controls,
	} {
		if v != "" {
			return v
		}
	}
	return ""
}
