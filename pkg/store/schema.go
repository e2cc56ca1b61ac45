package store

// definitionSchema structurally validates a raw definition payload before it
// is unmarshalled. Range constraints (rollout percentage bounds, time window
// ordering) are deliberately left out so they surface as INVALID_RANGE rather
// than MALFORMED_PAYLOAD.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["flags"],
  "properties": {
    "flags": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["enabled"],
        "additionalProperties": false,
        "properties": {
          "enabled": { "type": "boolean" },
          "rolloutPercentage": { "type": "integer" },
          "rules": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["kind"],
              "additionalProperties": false,
              "properties": {
                "kind": {
                  "enum": ["userInList", "groupInList", "timeWindow", "percentageOf", "jsonLogic"]
                },
                "effect": { "type": "boolean" },
                "users": { "type": "array", "items": { "type": "string" } },
                "groups": { "type": "array", "items": { "type": "string" } },
                "start": { "type": "string", "format": "date-time" },
                "end": { "type": "string", "format": "date-time" },
                "percentage": { "type": "integer" },
                "subjectKey": { "type": "string" },
                "logic": {}
              }
            }
          }
        }
      }
    }
  }
}`
