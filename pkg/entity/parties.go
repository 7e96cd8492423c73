package entity

import "github.com/benfordscope/benfordscope/pkg/benford"

var partyFields = map[string]int{
	"DEM":         benford.FieldDem,
	"democrat":    benford.FieldDem,
	"REP":         benford.FieldRep,
	"republican":  benford.FieldRep,
	"libertarian": benford.FieldOther,
}

// PartyField maps a source party id to its Sample field.
func PartyField(partyID string) (int, bool) {
	field, ok := partyFields[partyID]
	return field, ok
}

// PartyTable resolves candidate keys to Sample fields for one run. The
// first party seen for a key wins.
type PartyTable struct {
	candidates map[string]int
}

func NewPartyTable() *PartyTable {
	return &PartyTable{candidates: make(map[string]int)}
}

// Register records key under field unless it is already known, and returns
// the field the key resolves to.
func (t *PartyTable) Register(key string, field int) int {
	if known, ok := t.candidates[key]; ok {
		return known
	}
	t.candidates[key] = field
	return field
}

func (t *PartyTable) Lookup(key string) (int, bool) {
	field, ok := t.candidates[key]
	return field, ok
}

func (t *PartyTable) Len() int {
	return len(t.candidates)
}
