package assist

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/park285/voicechess/internal/domain"
)

// actionSchema is the contract for structured replies. Anything that does
// not validate is spoken back as free text instead of being acted on.
const actionSchema = `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": {"type": "string", "enum": ["move", "command"]},
    "move": {"type": "string", "minLength": 2},
    "command": {"type": "string", "minLength": 1},
    "arg": {"type": "string"}
  },
  "allOf": [
    {
      "if": {"properties": {"action": {"const": "move"}}},
      "then": {"required": ["move"]}
    },
    {
      "if": {"properties": {"action": {"const": "command"}}},
      "then": {"required": ["command"]}
    }
  ]
}`

var compiledSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(actionSchema))
	if err != nil {
		panic("action schema: " + err.Error())
	}
	compiledSchema = s
}

type structuredAction struct {
	Action  string `json:"action"`
	Move    string `json:"move"`
	Command string `json:"command"`
	Arg     string `json:"arg"`
}

// classifyContent decides whether a completion is a structured action or
// free text. Models sometimes wrap JSON in a code fence; that is stripped
// before validation.
func classifyContent(content string) domain.AssistantResponse {
	text := strings.TrimSpace(content)
	candidate := stripFence(text)

	if strings.HasPrefix(candidate, "{") {
		result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(candidate))
		if err == nil && result.Valid() {
			var sa structuredAction
			if json.Unmarshal([]byte(candidate), &sa) == nil {
				return domain.AssistantResponse{
					Kind:    domain.AssistantAction,
					Action:  sa.Action,
					Move:    sa.Move,
					Command: sa.Command,
					Arg:     sa.Arg,
				}
			}
		}
	}
	return domain.AssistantResponse{Kind: domain.AssistantFreeText, Text: text}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
