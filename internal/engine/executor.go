package engine

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ash-vash90/production-companion-19-sub004/internal/metadata"
	"github.com/ash-vash90/production-companion-19-sub004/internal/store"
)

// HandlerFunc executes one automation action. The returned map is the small
// structured result echoed to the caller and persisted in the execution log.
type HandlerFunc func(ctx context.Context, ex *Execution) (map[string]any, error)

// Execution carries everything one handler invocation needs: the rule being
// executed, the parsed inbound payload, and the downstream store.
type Execution struct {
	Store   *store.Store
	Rule    *metadata.AutomationRule
	Payload any
}

// Field resolves a logical field through the rule's mappings. The second
// return is false when the field is unmapped or the path misses the payload.
func (e *Execution) Field(name string) (any, bool) {
	path, ok := FieldPath(e.Rule, name)
	if !ok {
		return nil, false
	}
	return ResolvePath(e.Payload, path)
}

// FieldString resolves a logical field and coerces scalars to string.
// Missing values and empty strings both report absent.
func (e *Execution) FieldString(name string) (string, bool) {
	v, ok := e.Field(name)
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64, int, int64, bool:
		s = fmt.Sprintf("%v", val)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// FieldInt resolves a logical field as an integer.
func (e *Execution) FieldInt(name string) (int, bool) {
	v, ok := e.Field(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

// ExecutedRule is one successful entry in the aggregate result.
type ExecutedRule struct {
	Rule   string              `json:"rule"`
	Action metadata.ActionType `json:"action"`
	Result map[string]any      `json:"result,omitempty"`
}

// Executor dispatches automation rules to their action handlers.
type Executor struct {
	store    *store.Store
	handlers map[metadata.ActionType]HandlerFunc
}

// NewExecutor builds an Executor with the full handler table. It panics if
// any action type lacks a handler, so an unregistered handler is a startup
// failure rather than a silent runtime skip.
func NewExecutor(s *store.Store) *Executor {
	handlers := defaultHandlers()
	for _, t := range metadata.AllActionTypes {
		if handlers[t] == nil {
			panic(fmt.Sprintf("no handler registered for action type %q", t))
		}
	}
	return &Executor{store: s, handlers: handlers}
}

// Execute runs each rule's handler strictly in the given order and aggregates
// per-rule outcomes. One rule's failure (error or panic) is recorded and
// execution continues: rules are independently authored and a misconfigured
// one must not block unrelated automations.
func (e *Executor) Execute(ctx context.Context, rules []*metadata.AutomationRule, payload any) ([]ExecutedRule, []string) {
	ordered := make([]*metadata.AutomationRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortOrder < ordered[j].SortOrder
	})

	var executed []ExecutedRule
	var errs []string

	for _, rule := range ordered {
		if !rule.Enabled {
			continue
		}

		fire, err := evaluateRuleCondition(rule, payload)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rule.Name, err))
			continue
		}
		if !fire {
			continue
		}

		result, err := e.runHandler(ctx, rule, payload)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rule.Name, err))
			continue
		}
		executed = append(executed, ExecutedRule{
			Rule:   rule.Name,
			Action: rule.ActionType,
			Result: result,
		})
	}
	return executed, errs
}

func (e *Executor) runHandler(ctx context.Context, rule *metadata.AutomationRule, payload any) (result map[string]any, err error) {
	handler := e.handlers[rule.ActionType]
	if handler == nil {
		return nil, fmt.Errorf("unknown action type %q", rule.ActionType)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: rule %s handler panic: %v", rule.ID, r)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	ex := &Execution{Store: e.store, Rule: rule, Payload: payload}
	return handler(ctx, ex)
}

// evaluateRuleCondition evaluates a rule's optional gating expression against
// the inbound payload. Empty expression always fires. Compilation is lazy and
// cached on the rule.
func evaluateRuleCondition(rule *metadata.AutomationRule, payload any) (bool, error) {
	if rule.Conditions.Expression == "" {
		return true, nil
	}

	prog, ok := rule.Compiled.(*vm.Program)
	if !ok || prog == nil {
		compiled, err := expr.Compile(rule.Conditions.Expression, expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compile condition: %w", err)
		}
		rule.Compiled = compiled
		prog = compiled
	}

	env := map[string]any{"payload": payload}
	result, err := expr.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition: %w", err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not return bool")
	}
	return b, nil
}
