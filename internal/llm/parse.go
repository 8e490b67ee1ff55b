package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"focal/internal/model"
)

// ParsePlan turns raw generator output into a validated plan. The raw
// text may wrap the JSON object in markdown fences or prose.
func ParsePlan(raw string) (model.PrioritizationResult, error) {
	var plan model.PrioritizationResult

	payload, ok := ExtractJSON([]byte(raw))
	if !ok {
		return plan, fmt.Errorf("generator output contains no JSON object")
	}
	if err := validateSchema(planOutputSchema, payload, "plan"); err != nil {
		return plan, err
	}
	if err := json.Unmarshal(payload, &plan); err != nil {
		return plan, fmt.Errorf("unmarshal plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return plan, fmt.Errorf("plan validation: %w", err)
	}
	return plan, nil
}

// ParseEvaluation turns raw evaluator output into a validated
// evaluation result.
func ParseEvaluation(raw string) (model.EvaluationResult, error) {
	var eval model.EvaluationResult

	payload, ok := ExtractJSON([]byte(raw))
	if !ok {
		return eval, fmt.Errorf("evaluator output contains no JSON object")
	}
	if err := validateSchema(evaluationOutputSchema, payload, "evaluation"); err != nil {
		return eval, err
	}
	if err := json.Unmarshal(payload, &eval); err != nil {
		return eval, fmt.Errorf("unmarshal evaluation: %w", err)
	}
	if err := eval.Validate(); err != nil {
		return eval, fmt.Errorf("evaluation validation: %w", err)
	}
	return eval, nil
}

func validateSchema(schema string, payload []byte, kind string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate %s schema: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("%s schema validation failed: %s", kind, strings.Join(errs, "; "))
}
