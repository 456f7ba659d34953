package hypertune

// settingsSchema is the structural contract of a training_input document
// carrying a hyperparameter tuning spec.
const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["hyperparameters"],
  "properties": {
    "hyperparameters": {
      "type": "object",
      "required": ["goal", "maxTrials", "hyperparameterMetricTag", "params"],
      "properties": {
        "goal": {"enum": ["MAXIMIZE", "MINIMIZE"]},
        "maxTrials": {"type": "integer", "minimum": 1},
        "maxParallelTrials": {"type": "integer", "minimum": 1},
        "maxFailedTrials": {"type": "integer", "minimum": 0},
        "hyperparameterMetricTag": {"type": "string", "minLength": 1},
        "enableTrialEarlyStopping": {"type": "boolean"},
        "algorithm": {"enum": ["ALGORITHM_UNSPECIFIED", "GRID_SEARCH", "RANDOM_SEARCH"]},
        "params": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["parameterName", "type"],
            "properties": {
              "parameterName": {"type": "string", "pattern": "^[A-Za-z][A-Za-z0-9_]*$"},
              "type": {"enum": ["DOUBLE", "INTEGER", "CATEGORICAL", "DISCRETE"]},
              "minValue": {"type": "number"},
              "maxValue": {"type": "number"},
              "discreteValues": {"type": "array", "minItems": 1, "items": {"type": "number"}},
              "categoricalValues": {"type": "array", "minItems": 1, "items": {"type": "string"}},
              "scaleType": {"enum": ["NONE", "UNIT_LINEAR_SCALE", "UNIT_LOG_SCALE", "UNIT_REVERSE_LOG_SCALE"]}
            },
            "additionalProperties": false
          }
        }
      }
    }
  }
}`
