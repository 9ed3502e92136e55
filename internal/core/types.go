package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// City is a market location
type City string

const (
	CityBridgewatch  City = "Bridgewatch"
	CityCaerleon     City = "Caerleon"
	CityFortSterling City = "Fort Sterling"
	CityLymhurst     City = "Lymhurst"
	CityMartlock     City = "Martlock"
	CityThetford     City = "Thetford"
	CityBrecilien    City = "Brecilien"
	CityBlackMarket  City = "Black Market"
)

// Cities returns every known market location
func Cities() []City {
	return []City{
		CityBridgewatch,
		CityCaerleon,
		CityFortSterling,
		CityLymhurst,
		CityMartlock,
		CityThetford,
		CityBrecilien,
		CityBlackMarket,
	}
}

// IsKnown reports whether c is one of the known market locations
func (c City) IsKnown() bool {
	for _, known := range Cities() {
		if c == known {
			return true
		}
	}
	return false
}

// Region selects the regional market data server
type Region string

const (
	RegionEurope   Region = "europe"
	RegionAsia     Region = "asia"
	RegionAmericas Region = "americas"
)

// ParseRegion maps a selector to a Region, defaulting to Europe when unrecognized
func ParseRegion(s string) Region {
	switch Region(strings.ToLower(strings.TrimSpace(s))) {
	case RegionAsia:
		return RegionAsia
	case RegionAmericas:
		return RegionAmericas
	default:
		return RegionEurope
	}
}

// Quality is the craftsmanship level of a market listing
type Quality int

// DefaultQualities are the levels requested from the price provider
var DefaultQualities = []Quality{0, 1, 2, 3, 4}

// String returns the display label for the quality level
func (q Quality) String() string {
	switch q {
	case 0:
		return "Normal"
	case 1:
		return "Good"
	case 2:
		return "Excellent"
	case 3:
		return "Masterpiece"
	case 4:
		return "Artifact"
	default:
		return "Unknown"
	}
}

// MarshalText renders the quality as its label
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText accepts either a label or a numeric level
func (q *Quality) UnmarshalText(text []byte) error {
	s := string(text)
	for level := Quality(0); level <= 4; level++ {
		if strings.EqualFold(level.String(), s) {
			*q = level
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("unknown quality %q", s)
	}
	*q = Quality(n)
	return nil
}

// Timestamp is a provider time. The market data API reports UTC times without a
// zone suffix.
type Timestamp struct {
	time.Time
}

const providerTimeLayout = "2006-01-02T15:04:05"

// UnmarshalJSON parses both zone-less provider times and RFC3339 times
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.ParseInLocation(providerTimeLayout, s, time.UTC); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON writes the time in the provider layout
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(providerTimeLayout))
}

// CatalogEntry is a raw record from the item catalog dump
type CatalogEntry struct {
	UniqueName            string            `json:"UniqueName"`
	LocalizedNames        map[string]string `json:"LocalizedNames"`
	LocalizedDescriptions map[string]string `json:"LocalizedDescriptions"`
}

// Item is a tradeable catalog entry with parsed metadata
type Item struct {
	ID          string
	Name        string
	Tier        int
	Enchantment int
	Tradeable   bool
}

// TierLabel returns the composite "{tier}.{enchantment}" label
func (i Item) TierLabel() string {
	return fmt.Sprintf("%d.%d", i.Tier, i.Enchantment)
}

// PriceObservation is one quoted price for one item in one city at one quality
type PriceObservation struct {
	ItemID           string    `json:"item_id"`
	City             City      `json:"city"`
	Quality          Quality   `json:"quality"`
	SellPriceMin     int64     `json:"sell_price_min"`
	SellPriceMinDate Timestamp `json:"sell_price_min_date"`
	BuyPriceMax      int64     `json:"buy_price_max"`
	BuyPriceMaxDate  Timestamp `json:"buy_price_max_date"`
}

// UnmarshalJSON keeps the quality numeric on the wire
func (o *PriceObservation) UnmarshalJSON(data []byte) error {
	type alias PriceObservation
	aux := struct {
		*alias
		Quality int `json:"quality"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.Quality = Quality(aux.Quality)
	return nil
}

// MarshalJSON mirrors UnmarshalJSON
func (o PriceObservation) MarshalJSON() ([]byte, error) {
	type alias PriceObservation
	return json.Marshal(struct {
		alias
		Quality int `json:"quality"`
	}{alias: alias(o), Quality: int(o.Quality)})
}

// Risk is a fill-likelihood ratio, or N/A when it cannot be computed
type Risk struct {
	Value float64
	Valid bool
}

// RiskNA is the undefined risk sentinel
var RiskNA = Risk{}

// NewRisk returns a defined risk value
func NewRisk(v float64) Risk {
	return Risk{Value: v, Valid: true}
}

func (r Risk) String() string {
	if !r.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(r.Value, 'f', 2, 64)
}

// MarshalJSON writes a number or the string "N/A"
func (r Risk) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON mirrors MarshalJSON
func (r *Risk) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*r = RiskNA
		return nil
	}
	*r = NewRisk(v)
	return nil
}

// Trade is a profitable transfer of an item from one city to another
type Trade struct {
	ItemID      string  `json:"itemId"`
	ItemName    string  `json:"itemName,omitempty"`
	ItemTier    string  `json:"itemTier,omitempty"`
	BuyFromCity City    `json:"buyFromCity"`
	SellToCity  City    `json:"sellToCity"`
	SellOrder   int64   `json:"sellOrder"`   // price paid in BuyFromCity
	BuyOrder    int64   `json:"buyOrder"`    // raw price in SellToCity, pre-tax
	NetBuyOrder int64   `json:"netBuyOrder"` // BuyOrder after tax
	SellQuality Quality `json:"sellQuality"`
	BuyQuality  Quality `json:"buyQuality"`
	SellAge     int     `json:"sellAge"` // minutes
	BuyAge      int     `json:"buyAge"`  // minutes
	Profit      int64   `json:"profit"`
	Risk        *Risk   `json:"risk,omitempty"`
}
