// Package game holds the pure rules of a planning poker round: the deck
// definitions, the card value codec and the vote aggregation.
package game

const (
	CardUnknown = "?"
	CardCoffee  = "☕"
)

// Special cards are stored as negative sentinel codes so that aggregation
// can filter them out with the same negative-number rule that excludes
// every other non-estimating value.
const (
	SentinelUnknown = "-2"
	SentinelCoffee  = "-1"
)

const (
	DeckTypeFibonacci = "fibonacci"
	DeckTypeTShirt    = "tshirt"
)

var DeckFibonacci = []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", CardUnknown, CardCoffee}
var DeckTShirt = []string{"XS", "S", "M", "L", "XL", "XXL", CardUnknown, CardCoffee}

// DeckFor resolves a deck type to its card labels. Unknown types fall back
// to the fibonacci deck.
func DeckFor(deckType string) []string {
	if deckType == DeckTypeTShirt {
		return DeckTShirt
	}
	return DeckFibonacci
}

// ValueForStorage encodes a card label for persistence: the two special
// cards become their sentinel codes, everything else is stored literally.
func ValueForStorage(card string) string {
	switch card {
	case CardUnknown:
		return SentinelUnknown
	case CardCoffee:
		return SentinelCoffee
	default:
		return card
	}
}

// DisplayValue is the inverse of ValueForStorage; a missing value displays
// as the empty string.
func DisplayValue(value *string) string {
	if value == nil {
		return ""
	}
	switch *value {
	case SentinelUnknown:
		return CardUnknown
	case SentinelCoffee:
		return CardCoffee
	default:
		return *value
	}
}
