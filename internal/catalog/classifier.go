// Package catalog turns raw item catalog entries into tradeable items and joins
// item metadata back onto matched trades.
package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/albionflip/internal/core"
)

const (
	// Locale used for names and descriptions
	Locale = "EN-US"

	// MinTradeableTier is the lowest tier that can be traded between cities
	MinTradeableTier = 4

	// NameUnavailable is used when the catalog has no localized name
	NameUnavailable = "N/A"

	enchantmentSeparator = "@"
	nonTradeableMarker   = "non-trad"
)

var tierPattern = regexp.MustCompile(`^T(\d)`)

// ParseTier returns the tier encoded as a leading "T<digit>", or 0
func ParseTier(id string) int {
	m := tierPattern.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	tier, _ := strconv.Atoi(m[1])
	return tier
}

// ParseEnchantment returns the level after the enchantment separator, or 0
func ParseEnchantment(id string) int {
	_, suffix, ok := strings.Cut(id, enchantmentSeparator)
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(suffix)
	if err != nil || level < 0 {
		return 0
	}
	return level
}

// Describe parses a single catalog entry without filtering it
func Describe(entry core.CatalogEntry) core.Item {
	tier := ParseTier(entry.UniqueName)

	name := entry.LocalizedNames[Locale]
	if name == "" {
		name = NameUnavailable
	}

	description := entry.LocalizedDescriptions[Locale]
	tradeable := description != "" && !strings.Contains(description, nonTradeableMarker)

	return core.Item{
		ID:          entry.UniqueName,
		Name:        name,
		Tier:        tier,
		Enchantment: ParseEnchantment(entry.UniqueName),
		Tradeable:   tradeable && tier >= MinTradeableTier,
	}
}

// Classify keeps the tradeable entries of the catalog, in catalog order
func Classify(entries []core.CatalogEntry) []core.Item {
	items := make([]core.Item, 0, len(entries))
	for _, entry := range entries {
		item := Describe(entry)
		if item.Tradeable {
			items = append(items, item)
		}
	}
	return items
}

// FilterTiers keeps the items whose tier is in tiers. An empty tier set keeps all.
func FilterTiers(items []core.Item, tiers []int) []core.Item {
	if len(tiers) == 0 {
		return items
	}
	wanted := make(map[int]struct{}, len(tiers))
	for _, t := range tiers {
		wanted[t] = struct{}{}
	}

	result := make([]core.Item, 0, len(items))
	for _, item := range items {
		if _, ok := wanted[item.Tier]; ok {
			result = append(result, item)
		}
	}
	return result
}

// IDs returns the identifiers of items
func IDs(items []core.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
