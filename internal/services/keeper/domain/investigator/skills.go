package investigator

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SkillDef is one entry of the skill catalog.
type SkillDef struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Base  int    `yaml:"base"`
}

// SkillCatalog is the set of known skill keys.
type SkillCatalog struct {
	skills []SkillDef
	byKey  map[string]SkillDef
}

type skillFile struct {
	Skills []SkillDef `yaml:"skills"`
}

//go:embed skills.yaml
var embeddedSkills []byte

var (
	defaultSkillsOnce sync.Once
	defaultSkills     *SkillCatalog
)

// DefaultSkills returns the embedded skill catalog.
func DefaultSkills() *SkillCatalog {
	defaultSkillsOnce.Do(func() {
		catalog, err := ParseSkillCatalog(embeddedSkills)
		if err != nil {
			panic(err)
		}
		defaultSkills = catalog
	})
	return defaultSkills
}

// ParseSkillCatalog parses a YAML skill list.
func ParseSkillCatalog(data []byte) (*SkillCatalog, error) {
	var parsed skillFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse skill catalog: %w", err)
	}
	if len(parsed.Skills) == 0 {
		return nil, fmt.Errorf("skill catalog is empty")
	}
	catalog := &SkillCatalog{byKey: make(map[string]SkillDef, len(parsed.Skills))}
	for _, def := range parsed.Skills {
		def.Key = strings.ToLower(strings.TrimSpace(def.Key))
		if def.Key == "" {
			return nil, fmt.Errorf("skill key is required")
		}
		if _, ok := columnFieldsByName[def.Key]; ok {
			return nil, fmt.Errorf("skill %q shadows a characteristic", def.Key)
		}
		if _, ok := catalog.byKey[def.Key]; ok {
			return nil, fmt.Errorf("duplicate skill %q", def.Key)
		}
		if def.Base < 0 {
			return nil, fmt.Errorf("skill %q has negative base %d", def.Key, def.Base)
		}
		catalog.byKey[def.Key] = def
		catalog.skills = append(catalog.skills, def)
	}
	return catalog, nil
}

// Skill returns the definition for key.
func (c *SkillCatalog) Skill(key string) (SkillDef, bool) {
	if c == nil {
		return SkillDef{}, false
	}
	def, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	return def, ok
}

// Keys returns the sorted skill keys.
func (c *SkillCatalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.skills))
	for _, def := range c.skills {
		keys = append(keys, def.Key)
	}
	sort.Strings(keys)
	return keys
}

// Skills returns the definitions in catalog order.
func (c *SkillCatalog) Skills() []SkillDef {
	if c == nil {
		return nil
	}
	return append([]SkillDef(nil), c.skills...)
}

// WithBaseSkills fills every catalog skill missing from rec with its base value.
func (c *SkillCatalog) WithBaseSkills(rec Investigator) Investigator {
	skills := make(map[string]int, len(c.skills))
	for _, def := range c.skills {
		skills[def.Key] = def.Base
	}
	for key, value := range rec.Skills {
		skills[key] = value
	}
	rec.Skills = skills
	return rec
}
