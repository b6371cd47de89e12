package httpapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// profileSchema validates PUT /profile and POST /roadmap bodies.
const profileSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["target_role"],
  "properties": {
    "name": {"type": "string"},
    "current_role": {"type": "string"},
    "target_role": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "skills": {"type": "array", "items": {"type": "string"}},
    "interests": {"type": "array", "items": {"type": "string"}},
    "experience_level": {"enum": ["", "beginner", "intermediate", "advanced"]},
    "hours_per_week": {"type": "integer", "minimum": 0, "maximum": 80},
    "duration_months": {"type": "integer", "minimum": 0, "maximum": 60}
  }
}`

// progressSchema validates PATCH /progress bodies.
const progressSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["phase_index", "status"],
  "properties": {
    "phase_index": {"type": "integer", "minimum": 0},
    "status": {"enum": ["pending", "completed"]}
  }
}`

// adoptSchema validates POST /roadmap/adopt bodies.
const adoptSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["roadmap"],
  "properties": {
    "title": {"type": "string"},
    "roadmap": {
      "type": "object",
      "required": ["phases"],
      "properties": {
        "title": {"type": "string"},
        "duration_months": {"type": "integer", "minimum": 0},
        "phases": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "duration": {"type": "string"},
              "focus_skills": {"type": "array", "items": {"type": "string"}},
              "outcomes": {"type": "array", "items": {"type": "string"}},
              "status": {"enum": ["", "pending", "completed"]},
              "milestones": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["name"],
                  "properties": {
                    "name": {"type": "string", "minLength": 1},
                    "estimated_hours": {"type": "number", "minimum": 0},
                    "resources": {
                      "type": "array",
                      "items": {
                        "type": "object",
                        "required": ["type", "title", "url"],
                        "properties": {
                          "type": {"enum": ["docs", "course", "video", "article", "project"]},
                          "title": {"type": "string", "minLength": 1},
                          "url": {"type": "string", "minLength": 1},
                          "duration": {"type": "string"}
                        }
                      }
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// requestSchemas holds the compiled body schemas.
type requestSchemas struct {
	profile  *jsonschema.Schema
	progress *jsonschema.Schema
	adopt    *jsonschema.Schema
}

// compileRequestSchemas compiles every request body schema.
func compileRequestSchemas() (requestSchemas, error) {
	c := jsonschema.NewCompiler()
	sources := map[string]string{
		"schema://profile.json":  profileSchema,
		"schema://progress.json": progressSchema,
		"schema://adopt.json":    adoptSchema,
	}
	for url, raw := range sources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
		if err != nil {
			return requestSchemas{}, fmt.Errorf("parse schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return requestSchemas{}, fmt.Errorf("add schema %s: %w", url, err)
		}
	}
	var out requestSchemas
	for url, dst := range map[string]**jsonschema.Schema{
		"schema://profile.json":  &out.profile,
		"schema://progress.json": &out.progress,
		"schema://adopt.json":    &out.adopt,
	} {
		compiled, err := c.Compile(url)
		if err != nil {
			return requestSchemas{}, fmt.Errorf("compile schema %s: %w", url, err)
		}
		*dst = compiled
	}
	return out, nil
}

// validateAgainst checks one raw JSON body against schema.
func validateAgainst(schema *jsonschema.Schema, raw []byte) error {
	if schema == nil {
		return nil
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
