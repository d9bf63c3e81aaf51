package specsheet

import (
	"fmt"
	"math"
	"strings"
)

// Evaluation is the deterministic comparison of a prediction against a
// confirmed truth. IsCorrect means every compared field matched; Score is
// the matched fraction in [0,1]. Details names each mismatched field.
type Evaluation struct {
	IsCorrect bool     `json:"is_correct"`
	Score     float64  `json:"score"`
	Details   []string `json:"details"`
}

// Evaluate normalizes both sides and compares field by field. List fields
// must match element for element; Specifications compare slot by slot.
func Evaluate(prediction, truth Data) Evaluation {
	Normalize(&prediction)
	Normalize(&truth)

	total := 0
	matched := 0
	var details []string

	field := func(name, pred, want string) {
		total++
		if pred == want {
			matched++
			return
		}
		details = append(details, fmt.Sprintf("%s: got %q, want %q", name, pred, want))
	}
	list := func(name string, pred, want []string) {
		total++
		if strings.Join(pred, "\x00") == strings.Join(want, "\x00") {
			matched++
			return
		}
		details = append(details, fmt.Sprintf("%s: got %d entries %v, want %d entries %v",
			name, len(pred), pred, len(want), want))
	}

	field("productTitle", prediction.ProductTitle, truth.ProductTitle)
	field("features.capacity", prediction.Features.Capacity, truth.Features.Capacity)
	field("features.jets", prediction.Features.Jets, truth.Features.Jets)
	field("features.pumps", prediction.Features.Pumps, truth.Features.Pumps)
	field("measurements", prediction.Measurements, truth.Measurements)
	list("premiumFeatures", prediction.PremiumFeatures, truth.PremiumFeatures)
	list("insulationFeatures", prediction.InsulationFeatures, truth.InsulationFeatures)
	list("extraFeatures", prediction.ExtraFeatures, truth.ExtraFeatures)
	list("smartWater", prediction.SmartWater, truth.SmartWater)
	field("images.product", prediction.Images.Product, truth.Images.Product)
	field("images.background", prediction.Images.Background, truth.Images.Background)

	specNames := []string{
		"Specifications.CabinetColor", "Specifications.ShellColor",
		"Specifications.DryWeight", "Specifications.WaterCapacity",
		"Specifications.Pump", "Specifications.Controls",
	}
	for i := 0; i < specRowCount; i++ {
		field(specNames[i], specValue(prediction.Specifications[i]), specValue(truth.Specifications[i]))
	}

	score := float64(matched) / float64(total)
	return Evaluation{
		IsCorrect: matched == total,
		Score:     math.Round(score*1000) / 1000,
		Details:   details,
	}
}
