package specsheet

import "strings"

// placeholderAliases are values models emit for missing data; all of them
// collapse to Placeholder.
var placeholderAliases = map[string]bool{
	"未知": true, "Unknown": true, "N/A": true, "n/a": true, "NA": true,
}

func normalizeValue(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || placeholderAliases[trimmed] {
		return Placeholder
	}
	return trimmed
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" || placeholderAliases[trimmed] {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// Normalize rewrites placeholder aliases to Placeholder, drops empty and
// placeholder entries from list fields, and forces the Specifications array
// back into its fixed six-row order, keeping whatever values the extraction
// supplied for each slot.
func Normalize(d *Data) {
	d.ProductTitle = normalizeValue(d.ProductTitle)
	d.Features.Capacity = normalizeValue(d.Features.Capacity)
	d.Features.Jets = normalizeValue(d.Features.Jets)
	d.Features.Pumps = normalizeValue(d.Features.Pumps)
	d.Measurements = normalizeValue(d.Measurements)
	d.PremiumFeatures = normalizeList(d.PremiumFeatures)
	d.InsulationFeatures = normalizeList(d.InsulationFeatures)
	d.ExtraFeatures = normalizeList(d.ExtraFeatures)
	d.SmartWater = normalizeList(d.SmartWater)
	d.Images.Product = normalizeValue(d.Images.Product)
	d.Images.Background = normalizeValue(d.Images.Background)

	// Collect whatever slots were filled, regardless of row position.
	var cabinet, shell, dry, water, pump, controls string
	for _, row := range d.Specifications {
		pick := func(dst *string, v string) {
			if v != "" && *dst == "" {
				*dst = v
			}
		}
		pick(&cabinet, row.CabinetColor)
		pick(&shell, row.ShellColor)
		pick(&dry, row.DryWeight)
		pick(&water, row.WaterCapacity)
		pick(&pump, row.Pump)
		pick(&controls, row.Controls)
	}
	d.Specifications = []Specification{
		{CabinetColor: normalizeValue(cabinet)},
		{ShellColor: normalizeValue(shell)},
		{DryWeight: normalizeValue(dry)},
		{WaterCapacity: normalizeValue(water)},
		{Pump: normalizeValue(pump)},
		{Controls: normalizeValue(controls)},
	}
}
