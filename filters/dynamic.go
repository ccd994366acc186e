// surodeals/filters/dynamic.go
package filters

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Hokky66/Surodeals/models"
)

// AdSource provides the data the generator mines facets from.
type AdSource interface {
	GetFilterDefinitions(categorySlug string) ([]models.FilterDefinition, error)
	GetCategoryFamily(slug string) (string, error)
	ApprovedAdTexts(categorySlug string) (locations []string, prices []int64, texts []string, err error)
}

// keywordFacet is one mineable facet: a field key, a label, and the fixed
// keyword list scanned for in ad text. Deliberately low precision; the facet
// only exists if the free text happens to mention the keywords.
type keywordFacet struct {
	FieldKey string
	Label    string
	Keywords []string
}

// familyFacets maps a category family to its keyword tables.
var familyFacets = map[string][]keywordFacet{
	"vehicles": {
		{"merk", "Merk", []string{
			"toyota", "bmw", "mercedes", "audi", "volkswagen", "honda", "nissan",
			"hyundai", "kia", "ford", "opel", "peugeot", "renault", "suzuki",
			"mazda", "mitsubishi", "lexus", "daihatsu",
		}},
		{"brandstof", "Brandstof", []string{
			"benzine", "diesel", "hybride", "elektrisch", "gas",
		}},
		{"transmissie", "Transmissie", []string{
			"automaat", "handgeschakeld", "schakelbak",
		}},
	},
	"electronics": {
		{"merk", "Merk", []string{
			"apple", "samsung", "huawei", "xiaomi", "sony", "lg", "nokia",
			"oppo", "motorola", "lenovo", "hp", "dell", "asus", "acer",
		}},
		{"conditie", "Conditie", []string{
			"nieuw", "gebruikt", "refurbished", "defect",
		}},
	},
	"clothing": {
		{"maat", "Maat", []string{
			"xs", "s", "m", "l", "xl", "xxl",
		}},
		{"conditie", "Conditie", []string{
			"nieuw", "gebruikt",
		}},
	},
}

// Generator synthesizes facet filters for a category when no admin-curated
// definitions exist. One-shot, request-time computation over the category's
// approved ads; nothing is cached or persisted.
type Generator struct {
	source AdSource
}

func NewGenerator(source AdSource) *Generator {
	return &Generator{source: source}
}

// ForCategory returns the facets for a category: curated rows when present,
// otherwise dynamically mined ones.
func (g *Generator) ForCategory(slug string) ([]models.FilterDefinition, error) {
	curated, err := g.source.GetFilterDefinitions(slug)
	if err != nil {
		return nil, err
	}
	if len(curated) > 0 {
		return curated, nil
	}
	return g.synthesize(slug)
}

func (g *Generator) synthesize(slug string) ([]models.FilterDefinition, error) {
	family, err := g.source.GetCategoryFamily(slug)
	if err != nil {
		return nil, err
	}
	locations, prices, texts, err := g.source.ApprovedAdTexts(slug)
	if err != nil {
		return nil, err
	}

	var defs []models.FilterDefinition
	order := 0

	if locs := distinctLocations(locations); len(locs) >= 2 {
		defs = append(defs, models.FilterDefinition{
			CategorySlug: slug,
			FieldKey:     "locatie",
			Label:        "Locatie",
			Type:         "select",
			Options:      locs,
			SortOrder:    order,
			Active:       true,
			Dynamic:      true,
		})
		order++
	}

	if min, max, ok := priceRange(prices); ok {
		defs = append(defs, models.FilterDefinition{
			CategorySlug: slug,
			FieldKey:     "prijs",
			Label:        "Prijs",
			Type:         "range",
			Min:          min,
			Max:          max,
			SortOrder:    order,
			Active:       true,
			Dynamic:      true,
		})
		order++
	}

	for _, facet := range familyFacets[family] {
		hits := mineKeywords(texts, facet.Keywords)
		if len(hits) < 2 {
			continue
		}
		defs = append(defs, models.FilterDefinition{
			CategorySlug: slug,
			FieldKey:     facet.FieldKey,
			Label:        facet.Label,
			Type:         "select",
			Options:      hits,
			SortOrder:    order,
			Active:       true,
			Dynamic:      true,
		})
		order++
	}

	return defs, nil
}

// distinctLocations returns the sorted distinct non-empty locations, or fewer
// than 2 entries when the facet should not be offered.
func distinctLocations(locations []string) []string {
	seen := make(map[string]string) // lowercase -> first-seen original
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		key := strings.ToLower(loc)
		if _, ok := seen[key]; !ok {
			seen[key] = loc
		}
	}
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// priceRange reports the observed min/max and whether the range is
// non-degenerate (max strictly greater than min).
func priceRange(prices []int64) (int64, int64, bool) {
	if len(prices) == 0 {
		return 0, 0, false
	}
	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max, max > min
}

// mineKeywords scans every ad text for whole-word keyword occurrences and
// returns the distinct hits, Title-cased, in keyword-table order.
func mineKeywords(texts []string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		for _, text := range texts {
			if re.MatchString(text) {
				hits = append(hits, titleCase(kw))
				break
			}
		}
	}
	return hits
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
