package orchestrator

import (
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	simerrors "github.com/coursesim/simcore/internal/domain/errors"
)

// EligibilityEvaluator compiles and caches ScenarioOutcome.EligibilityRule
// expressions, evaluated once per student when a scenario closes (§4.6).
type EligibilityEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEligibilityEvaluator builds an evaluator with an empty compiled cache.
func NewEligibilityEvaluator() *EligibilityEvaluator {
	return &EligibilityEvaluator{cache: make(map[string]*vm.Program)}
}

// Eligible reports whether a student is eligible for job creation. An empty
// rule means every enrolled student is eligible.
func (e *EligibilityEvaluator) Eligible(rule string, vars map[string]any) (bool, error) {
	if rule == "" {
		return true, nil
	}

	program, err := e.compiled(rule)
	if err != nil {
		return false, simerrors.Validation("eligibility rule does not compile: " + err.Error())
	}

	result, err := expr.Run(program, vars)
	if err != nil {
		return false, simerrors.Validation("eligibility rule failed to evaluate: " + err.Error())
	}

	ok, isBool := result.(bool)
	if !isBool {
		return false, simerrors.Validation("eligibility rule did not return a boolean")
	}
	return ok, nil
}

func (e *EligibilityEvaluator) compiled(rule string) (*vm.Program, error) {
	e.mu.RLock()
	program, cached := e.cache[rule]
	e.mu.RUnlock()
	if cached {
		return program, nil
	}

	program, err := expr.Compile(rule, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[rule] = program
	e.mu.Unlock()
	return program, nil
}
