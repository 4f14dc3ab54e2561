// Package investigator defines the character record used by keeper rolls and
// the enumerated accessor table over its numeric fields.
package investigator

import (
	"strings"
	"time"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
)

// CardType distinguishes player characters from keeper-run cards.
type CardType string

const (
	CardTypePlayer  CardType = "player"
	CardTypeNPC     CardType = "npc"
	CardTypeMonster CardType = "monster"
)

// DefaultTeam is assigned to records saved without a team.
const DefaultTeam = "Alpha"

// Investigator is one character card.
type Investigator struct {
	ID         string
	Name       string
	PlayerName string
	Occupation string
	TeamName   string
	CardType   CardType
	Age        int

	STR  int
	DEX  int
	CON  int
	POW  int
	APP  int
	SIZ  int
	INT  int
	EDU  int
	Luck int

	HPMax      int
	MPMax      int
	HPCurrent  int
	MPCurrent  int
	SanCurrent int
	Armor      int

	// Skills holds skill ratings by catalog key. Keys absent from the map
	// read as 0.
	Skills map[string]int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns a record carrying the default card values.
func New(name string) Investigator {
	return Investigator{
		Name:       name,
		TeamName:   DefaultTeam,
		CardType:   CardTypePlayer,
		Age:        20,
		STR:        50,
		DEX:        50,
		CON:        50,
		POW:        50,
		APP:        50,
		SIZ:        50,
		INT:        50,
		EDU:        50,
		Luck:       50,
		HPMax:      10,
		MPMax:      10,
		HPCurrent:  10,
		MPCurrent:  10,
		SanCurrent: 50,
		Skills:     map[string]int{},
	}
}

// Normalize trims text fields and fills the team and card type defaults.
func (i *Investigator) Normalize() {
	i.ID = strings.TrimSpace(i.ID)
	i.Name = strings.TrimSpace(i.Name)
	i.PlayerName = strings.TrimSpace(i.PlayerName)
	i.Occupation = strings.TrimSpace(i.Occupation)
	i.TeamName = strings.TrimSpace(i.TeamName)
	if i.TeamName == "" {
		i.TeamName = DefaultTeam
	}
	i.CardType = CardType(strings.ToLower(strings.TrimSpace(string(i.CardType))))
	if i.CardType == "" {
		i.CardType = CardTypePlayer
	}
	skills := make(map[string]int, len(i.Skills))
	for key, value := range i.Skills {
		skills[strings.ToLower(strings.TrimSpace(key))] = value
	}
	i.Skills = skills
}

// Validate checks the fields a store cannot repair on its own.
func (i Investigator) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return apperrors.New(apperrors.CodeInvestigatorName, "investigator name is required")
	}
	switch i.CardType {
	case CardTypePlayer, CardTypeNPC, CardTypeMonster:
	default:
		return apperrors.WithMetadata(apperrors.CodeInvestigatorCard, "unknown card type "+string(i.CardType),
			map[string]string{"CardType": string(i.CardType)})
	}
	for key := range i.Skills {
		if _, ok := DefaultSkills().Skill(key); !ok {
			return apperrors.WithMetadata(apperrors.CodeInvestigatorSkill, "unknown skill "+key,
				map[string]string{"Skill": key})
		}
	}
	return nil
}

// Skill returns the rating for key, or 0 when the record has none.
func (i Investigator) Skill(key string) int {
	if i.Skills == nil {
		return 0
	}
	return i.Skills[key]
}
