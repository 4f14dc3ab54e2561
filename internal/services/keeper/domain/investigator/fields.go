package investigator

import (
	"sort"
	"strings"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
)

// Field is one entry of the accessor table.
//
// Column-backed fields map to a column of the investigators table; skill
// fields live in the skill rows and have no column.
type Field struct {
	Name     string
	Column   string
	Resource bool

	get func(Investigator) int
	set func(*Investigator, int)
}

// Get reads the field from rec.
func (f Field) Get(rec Investigator) int {
	return f.get(rec)
}

// Set writes value into rec.
func (f Field) Set(rec *Investigator, value int) {
	f.set(rec, value)
}

// IsSkill reports whether the field is backed by a skill row.
func (f Field) IsSkill() bool {
	return f.Column == ""
}

func column(name, col string, resource bool, get func(Investigator) int, set func(*Investigator, int)) Field {
	return Field{Name: name, Column: col, Resource: resource, get: get, set: set}
}

var columnFields = []Field{
	column("age", "age", false, func(i Investigator) int { return i.Age }, func(i *Investigator, v int) { i.Age = v }),
	column("str", "str_stat", false, func(i Investigator) int { return i.STR }, func(i *Investigator, v int) { i.STR = v }),
	column("dex", "dex_stat", false, func(i Investigator) int { return i.DEX }, func(i *Investigator, v int) { i.DEX = v }),
	column("con", "con_stat", false, func(i Investigator) int { return i.CON }, func(i *Investigator, v int) { i.CON = v }),
	column("pow", "pow_stat", false, func(i Investigator) int { return i.POW }, func(i *Investigator, v int) { i.POW = v }),
	column("app", "app_stat", false, func(i Investigator) int { return i.APP }, func(i *Investigator, v int) { i.APP = v }),
	column("siz", "siz_stat", false, func(i Investigator) int { return i.SIZ }, func(i *Investigator, v int) { i.SIZ = v }),
	column("int", "int_stat", false, func(i Investigator) int { return i.INT }, func(i *Investigator, v int) { i.INT = v }),
	column("edu", "edu_stat", false, func(i Investigator) int { return i.EDU }, func(i *Investigator, v int) { i.EDU = v }),
	column("luck", "luck_stat", true, func(i Investigator) int { return i.Luck }, func(i *Investigator, v int) { i.Luck = v }),
	column("hp_max", "hp_max", false, func(i Investigator) int { return i.HPMax }, func(i *Investigator, v int) { i.HPMax = v }),
	column("mp_max", "mp_max", false, func(i Investigator) int { return i.MPMax }, func(i *Investigator, v int) { i.MPMax = v }),
	column("hp_current", "hp_current", true, func(i Investigator) int { return i.HPCurrent }, func(i *Investigator, v int) { i.HPCurrent = v }),
	column("mp_current", "mp_current", true, func(i Investigator) int { return i.MPCurrent }, func(i *Investigator, v int) { i.MPCurrent = v }),
	column("san_current", "san_current", true, func(i Investigator) int { return i.SanCurrent }, func(i *Investigator, v int) { i.SanCurrent = v }),
	column("armor", "armor", false, func(i Investigator) int { return i.Armor }, func(i *Investigator, v int) { i.Armor = v }),
}

var columnFieldsByName = indexFields(columnFields)

func indexFields(fields []Field) map[string]Field {
	out := make(map[string]Field, len(fields))
	for _, field := range fields {
		out[field.Name] = field
	}
	return out
}

func skillField(key string) Field {
	return Field{
		Name: key,
		get:  func(i Investigator) int { return i.Skill(key) },
		set: func(i *Investigator, v int) {
			if i.Skills == nil {
				i.Skills = map[string]int{}
			}
			i.Skills[key] = v
		},
	}
}

// Lookup resolves a field by name: characteristics and resources first, then
// the skill catalog. Unknown names are validation errors.
func Lookup(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if field, ok := columnFieldsByName[name]; ok {
		return field, nil
	}
	if _, ok := DefaultSkills().Skill(name); ok {
		return skillField(name), nil
	}
	return Field{}, apperrors.WithMetadata(apperrors.CodeFieldUnknown, "unknown field "+name,
		map[string]string{"Field": name})
}

// LookupResource resolves a field that may receive signed deltas.
func LookupResource(name string) (Field, error) {
	field, err := Lookup(name)
	if err != nil {
		return Field{}, err
	}
	if !field.Resource {
		return Field{}, apperrors.WithMetadata(apperrors.CodeFieldNotResource, "field "+field.Name+" is not a resource",
			map[string]string{"Field": field.Name})
	}
	return field, nil
}

// ColumnFields returns the column-backed entries in table order.
func ColumnFields() []Field {
	return append([]Field(nil), columnFields...)
}

// Columns returns the investigators-table columns the accessor table relies on.
func Columns() []string {
	out := make([]string, 0, len(columnFields))
	for _, field := range columnFields {
		out = append(out, field.Column)
	}
	return out
}

// ResourceNames returns the sorted names of every delta-capable field.
func ResourceNames() []string {
	out := []string{}
	for _, field := range columnFields {
		if field.Resource {
			out = append(out, field.Name)
		}
	}
	sort.Strings(out)
	return out
}

// MissingColumns reports the accessor columns absent from have.
func MissingColumns(have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, name := range have {
		present[strings.ToLower(name)] = struct{}{}
	}
	missing := []string{}
	for _, col := range Columns() {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
