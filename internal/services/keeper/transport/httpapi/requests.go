package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/keeperdesk/keeperdesk/internal/platform/errors"
	"github.com/keeperdesk/keeperdesk/internal/services/keeper/domain/investigator"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type requestSchemas struct {
	checkRoll     *jsonschema.Schema
	customRoll    *jsonschema.Schema
	massRoll      *jsonschema.Schema
	resourceDelta *jsonschema.Schema
	note          *jsonschema.Schema
	investigator  *jsonschema.Schema
}

func compileRequestSchemas() (*requestSchemas, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compile := func(name string) (*jsonschema.Schema, error) {
		path := "schemas/" + name + ".schema.json"
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		url := "keeperdesk://" + path
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	var (
		out requestSchemas
		err error
	)
	for _, target := range []struct {
		name string
		dst  **jsonschema.Schema
	}{
		{"check_roll", &out.checkRoll},
		{"custom_roll", &out.customRoll},
		{"mass_roll", &out.massRoll},
		{"resource_delta", &out.resourceDelta},
		{"note", &out.note},
		{"investigator", &out.investigator},
	} {
		if *target.dst, err = compile(target.name); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// decode validates the body against schema before decoding it into dst.
func (h *handler) decode(r *http.Request, schema *jsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRequestMalformed, "read request body", err)
	}
	if len(body) > maxRequestBodyBytes {
		return malformed("request body is too large")
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestMalformed, "request body is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestMalformed, "request body failed validation", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.Wrap(apperrors.CodeRequestMalformed, "decode request body", err)
	}
	return nil
}

func malformed(message string) error {
	return apperrors.New(apperrors.CodeRequestMalformed, message)
}

type checkRollRequest struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Target int    `json:"target"`
}

type customRollRequest struct {
	Actor string `json:"actor"`
	Sides int    `json:"sides"`
}

type massRollRequest struct {
	Skill      string `json:"skill"`
	SkillLabel string `json:"skill_label"`
}

type resourceDeltaRequest struct {
	Field string `json:"field"`
	Delta int    `json:"delta"`
}

type noteRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// investigatorRequest uses pointers so omitted ratings keep the card
// defaults.
type investigatorRequest struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PlayerName string         `json:"player_name"`
	Occupation string         `json:"occupation"`
	TeamName   string         `json:"team_name"`
	CardType   string         `json:"card_type"`
	Ratings    map[string]int `json:"-"`
	Skills     map[string]int `json:"skills"`
}

func (req *investigatorRequest) UnmarshalJSON(data []byte) error {
	type plain investigatorRequest
	var base plain
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	base.Ratings = map[string]int{}
	for _, field := range investigator.ColumnFields() {
		value, ok := raw[field.Name]
		if !ok {
			continue
		}
		var rating int
		if err := json.Unmarshal(value, &rating); err != nil {
			return fmt.Errorf("%s: %w", field.Name, err)
		}
		base.Ratings[field.Name] = rating
	}
	*req = investigatorRequest(base)
	return nil
}

func (req investigatorRequest) record() investigator.Investigator {
	rec := investigator.New(req.Name)
	rec.ID = req.ID
	rec.PlayerName = req.PlayerName
	rec.Occupation = req.Occupation
	rec.TeamName = req.TeamName
	rec.CardType = investigator.CardType(req.CardType)
	for _, field := range investigator.ColumnFields() {
		if value, ok := req.Ratings[field.Name]; ok {
			field.Set(&rec, value)
		}
	}
	for key, value := range req.Skills {
		rec.Skills[key] = value
	}
	return rec
}
