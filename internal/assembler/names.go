package assembler

import "fmt"

// defaultVillaNames is the storefront's villa id to display name table.
var defaultVillaNames = map[string]string{
	"ocean-breeze":   "Ocean Breeze Villa",
	"jungle-retreat": "Jungle Retreat Villa",
	"sunset-cliff":   "Sunset Cliff Villa",
	"lotus-pond":     "Lotus Pond Villa",
	"rice-terrace":   "Rice Terrace Villa",
	"coral-house":    "Coral House",
}

// Names resolves villa display names.
type Names struct {
	table map[string]string
}

// NewNames returns the default table with overrides applied on top.
func NewNames(overrides map[string]string) Names {
	table := make(map[string]string, len(defaultVillaNames)+len(overrides))
	for id, name := range defaultVillaNames {
		table[id] = name
	}
	for id, name := range overrides {
		if name != "" {
			table[id] = name
		}
	}
	return Names{table: table}
}

// DisplayName returns the mapped name, or "The {villaId} Villa" for unmapped ids.
func (n Names) DisplayName(villaID string) string {
	if name, ok := n.table[villaID]; ok {
		return name
	}
	return fmt.Sprintf("The %s Villa", villaID)
}
