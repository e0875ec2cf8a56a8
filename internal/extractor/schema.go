package extractor

import (
	"encoding/json"

	"github.com/maxviazov/scorebook-stats-service/internal/model"
)

// schemaName is the json_schema name sent to the model endpoint.
const schemaName = "scorebook"

// outputSchema builds the JSON schema for {"players":[{playerName, stats}]}
// from the canonical stat codes. Every object is closed and every key is
// required, as strict structured output demands.
func outputSchema() json.RawMessage {
	props := make(map[string]any, len(model.StatCodes))
	required := make([]string, 0, len(model.StatCodes))
	for _, code := range model.StatCodes {
		props[string(code)] = map[string]any{"type": "integer", "minimum": 0}
		required = append(required, string(code))
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"players": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"playerName": map[string]any{"type": "string"},
						"stats": map[string]any{
							"type":                 "object",
							"properties":           props,
							"required":             required,
							"additionalProperties": false,
						},
					},
					"required":             []string{"playerName", "stats"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"players"},
		"additionalProperties": false,
	}
	raw, _ := json.Marshal(schema)
	return raw
}

// scorebookPayload is the decoded model output. Players is a pointer so a
// payload missing the key is told apart from an empty scorebook.
type scorebookPayload struct {
	Players *[]model.ExtractedPlayerStat `json:"players"`
}
