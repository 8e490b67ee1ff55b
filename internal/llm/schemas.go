package llm

const planOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "thoughts": { "type": "array", "items": { "type": "string" } },
    "included_tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "task_id": { "type": "string" },
          "reason": { "type": "string" },
          "alignment_score": { "type": "number" }
        },
        "required": ["task_id", "reason"]
      }
    },
    "excluded_tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "task_id": { "type": "string" },
          "reason": { "type": "string" }
        },
        "required": ["task_id", "reason"]
      }
    },
    "ordered_task_ids": { "type": "array", "items": { "type": "string" } },
    "task_scores": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "task_id": { "type": "string" },
          "impact": { "type": "number" },
          "effort": { "type": "number" },
          "confidence": { "type": "number" },
          "reasoning": { "type": "string" },
          "brief_reasoning": { "type": "string" },
          "dependency_notes": { "type": "string" }
        },
        "required": ["task_id", "impact", "effort", "confidence", "reasoning"]
      }
    },
    "confidence": { "type": "number", "minimum": 0, "maximum": 1 },
    "critical_path_reasoning": { "type": "string" },
    "corrections_made": { "type": "string" }
  },
  "required": ["included_tasks", "excluded_tasks", "ordered_task_ids", "task_scores", "confidence", "critical_path_reasoning"]
}`

const evaluationOutputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "status": { "type": "string", "enum": ["PASS", "NEEDS_IMPROVEMENT"] },
    "feedback": { "type": "string" },
    "outcome_alignment": {
      "type": "object",
      "properties": {
        "score": { "type": "number", "minimum": 0, "maximum": 1 },
        "notes": { "type": "string" }
      },
      "required": ["score"]
    },
    "strategic_coherence": {
      "type": "object",
      "properties": {
        "score": { "type": "number", "minimum": 0, "maximum": 1 },
        "notes": { "type": "string" }
      },
      "required": ["score"]
    },
    "reflection_integration": {
      "type": "object",
      "properties": {
        "score": { "type": "number", "minimum": 0, "maximum": 1 },
        "notes": { "type": "string" }
      },
      "required": ["score"]
    },
    "continuity": {
      "type": "object",
      "properties": {
        "score": { "type": "number", "minimum": 0, "maximum": 1 },
        "notes": { "type": "string" }
      },
      "required": ["score"]
    }
  },
  "required": ["status", "feedback", "outcome_alignment", "strategic_coherence", "reflection_integration", "continuity"]
}`
