package engine

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"catalog-admin/internal/metadata"
)

// Rules evaluates the check expressions declared on entity metadata against
// the merged record before a write. Programs are compiled once at startup.
type Rules struct {
	programs map[string][]compiledCheck
}

type compiledCheck struct {
	name    string
	program *vm.Program
	message string
}

func NewRules(reg *metadata.Registry) (*Rules, error) {
	r := &Rules{programs: make(map[string][]compiledCheck)}
	for _, entity := range reg.Entities() {
		for _, chk := range entity.Checks {
			program, err := expr.Compile(chk.Expr, expr.AllowUndefinedVariables(), expr.AsBool())
			if err != nil {
				return nil, fmt.Errorf("compile check %s.%s: %w", entity.Name, chk.Name, err)
			}
			r.programs[entity.Name] = append(r.programs[entity.Name], compiledCheck{
				name:    chk.Name,
				program: program,
				message: chk.Message,
			})
		}
	}
	return r, nil
}

// Run evaluates every check for the entity; the first failing check rejects
// the write as a validation error.
func (r *Rules) Run(entity *metadata.Entity, record map[string]any) error {
	env := map[string]any{"record": record}
	for _, chk := range r.programs[entity.Name] {
		out, err := expr.Run(chk.program, env)
		if err != nil {
			return Validation(chk.message)
		}
		if ok, _ := out.(bool); !ok {
			return Validation(chk.message)
		}
	}
	return nil
}
