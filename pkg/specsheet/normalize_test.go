package specsheet

import "testing"

func TestNormalizePlaceholderAliases(t *testing.T) {
	data := Data{
		ProductTitle: "未知",
		Features:     Features{Capacity: "Unknown", Jets: "N/A", Pumps: "2 pumps"},
		Measurements: "  NA  ",
		Images:       Images{Product: "n/a", Background: "bg.png"},
	}
	Normalize(&data)

	if data.ProductTitle != Placeholder {
		t.Fatalf("productTitle = %q", data.ProductTitle)
	}
	if data.Features.Capacity != Placeholder || data.Features.Jets != Placeholder {
		t.Fatalf("features not normalized: %+v", data.Features)
	}
	if data.Features.Pumps != "2 pumps" {
		t.Fatalf("real value mangled: %q", data.Features.Pumps)
	}
	if data.Measurements != Placeholder {
		t.Fatalf("measurements = %q", data.Measurements)
	}
	if data.Images.Product != Placeholder || data.Images.Background != "bg.png" {
		t.Fatalf("images not normalized: %+v", data.Images)
	}
}

func TestNormalizeDropsEmptyListEntries(t *testing.T) {
	data := Data{
		PremiumFeatures: []string{"LED lighting", "", "  ", "Unknown", "Aromatherapy"},
	}
	Normalize(&data)
	if len(data.PremiumFeatures) != 2 {
		t.Fatalf("expected 2 entries, got %v", data.PremiumFeatures)
	}
	if data.PremiumFeatures[0] != "LED lighting" || data.PremiumFeatures[1] != "Aromatherapy" {
		t.Fatalf("unexpected entries: %v", data.PremiumFeatures)
	}
}

func TestNormalizeFixesSpecificationOrder(t *testing.T) {
	data := Data{
		Specifications: []Specification{
			{Pump: "2x speed pump"},
			{CabinetColor: "Walnut"},
		},
	}
	Normalize(&data)
	if len(data.Specifications) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(data.Specifications))
	}
	if data.Specifications[0].CabinetColor != "Walnut" {
		t.Fatalf("cabinet row = %+v", data.Specifications[0])
	}
	if data.Specifications[4].Pump != "2x speed pump" {
		t.Fatalf("pump row = %+v", data.Specifications[4])
	}
	// Unfilled slots carry the placeholder.
	if data.Specifications[1].ShellColor != Placeholder {
		t.Fatalf("shell row = %+v", data.Specifications[1])
	}
	if data.Specifications[5].Controls != Placeholder {
		t.Fatalf("controls row = %+v", data.Specifications[5])
	}
}

func TestDefaultSeedsTitle(t *testing.T) {
	data := Default("Aurora 5")
	if data.ProductTitle != "Aurora 5" {
		t.Fatalf("title = %q", data.ProductTitle)
	}
	if data.Measurements != Placeholder {
		t.Fatalf("measurements = %q", data.Measurements)
	}
	if len(data.Specifications) != 6 {
		t.Fatalf("spec rows = %d", len(data.Specifications))
	}
	if data.PremiumFeatures == nil || len(data.PremiumFeatures) != 0 {
		t.Fatalf("premiumFeatures = %v", data.PremiumFeatures)
	}

	empty := Default("")
	if empty.ProductTitle != Placeholder {
		t.Fatalf("empty title = %q", empty.ProductTitle)
	}
}
