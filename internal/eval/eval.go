// Package eval gives the table's successor and meta expressions their
// semantics.
//
// The program table stores the successor as an expression over a variable
// environment (a literal PC is the degenerate unconditional case; a branch is
// a ternary like "i < 10 ? 3 : 7"). The meta column's "assign name=expr" form
// binds variables. Neither ever reaches the engine: this package compiles the
// table into a sim.SuccessorFunc, and the environment is threaded through as
// a value so the function stays pure from the engine's point of view.
package eval

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sophiecomputer/cycle-sim/internal/program"
	"github.com/sophiecomputer/cycle-sim/internal/sim"
)

// Env is the run's variable environment. Treat instances as immutable: Bind
// returns a copy.
type Env map[string]any

// Clone returns an independent copy of the environment.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Bind returns a copy of the environment with name bound to value.
func (e Env) Bind(name string, value any) Env {
	out := e.Clone()
	out[name] = value
	return out
}

func compile(src string, opts ...expr.Option) (*vm.Program, error) {
	opts = append([]expr.Option{
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	}, opts...)
	return expr.Compile(src, opts...)
}

func run(prog *vm.Program, env Env) (any, error) {
	if env == nil {
		env = Env{}
	}
	return expr.Run(prog, map[string]any(env))
}

// EvalNext evaluates a successor expression to a PC.
func EvalNext(src string, env Env) (int, error) {
	prog, err := compile(src, expr.AsInt())
	if err != nil {
		return 0, fmt.Errorf("compile %q: %w", src, err)
	}
	out, err := run(prog, env)
	if err != nil {
		return 0, fmt.Errorf("evaluate %q: %w", src, err)
	}
	return out.(int), nil
}

// EvalValue evaluates an assignment's right-hand side.
func EvalValue(src string, env Env) (any, error) {
	prog, err := compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	out, err := run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", src, err)
	}
	return out, nil
}

// Apply executes a statement's meta field against the environment and returns
// the resulting environment. pass and exit leave it untouched; assign returns
// a copy with the new binding.
func Apply(meta string, env Env) (Env, error) {
	switch {
	case meta == "", meta == program.MetaPass, meta == program.MetaExit:
		return env, nil
	case strings.HasPrefix(meta, "assign "):
		name, src, err := splitAssign(meta)
		if err != nil {
			return env, err
		}
		value, err := EvalValue(src, env)
		if err != nil {
			return env, err
		}
		return env.Bind(name, value), nil
	default:
		return env, fmt.Errorf("unknown meta %q", meta)
	}
}

func splitAssign(meta string) (name, src string, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(meta, "assign"))
	name, src, ok := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	src = strings.TrimSpace(src)
	if !ok || name == "" || src == "" {
		return "", "", fmt.Errorf("malformed assign meta %q", meta)
	}
	return name, src, nil
}

type compiledStatement struct {
	next   *vm.Program // nil means no successor expression (halt)
	assign string      // variable bound by an assign meta, "" otherwise
	value  *vm.Program // right-hand side of the assign meta
	exit   bool
}

// Successor compiles every statement's expressions up front and returns the
// decision function the engine runs. Compile errors surface here, before any
// simulation begins.
//
// Execution order per statement matches the original table semantics: the
// meta effect applies first, then the successor expression is evaluated
// against the updated environment. Halt signals are an exit meta, a missing
// successor expression, and a successor evaluating to program.HaltPC; all are
// equivalent.
func Successor(p *program.Program) (sim.SuccessorFunc, error) {
	compiled := make(map[int]compiledStatement, p.Len())
	for _, st := range p.Statements() {
		var cs compiledStatement

		if st.Meta == program.MetaExit {
			cs.exit = true
		}
		if strings.HasPrefix(st.Meta, "assign ") {
			name, src, err := splitAssign(st.Meta)
			if err != nil {
				return nil, fmt.Errorf("pc %d: %w", st.PC, err)
			}
			value, err := compile(src)
			if err != nil {
				return nil, fmt.Errorf("pc %d: compile meta: %w", st.PC, err)
			}
			cs.assign = name
			cs.value = value
		}

		if st.HasNext() {
			next, err := compile(strings.TrimSpace(st.NextPC), expr.AsInt())
			if err != nil {
				return nil, fmt.Errorf("pc %d: compile nextpc: %w", st.PC, err)
			}
			cs.next = next
		}

		compiled[st.PC] = cs
	}

	return func(st program.Statement, state any) (int, any, bool, error) {
		env, _ := state.(Env)
		if env == nil {
			env = Env{}
		}

		cs, ok := compiled[st.PC]
		if !ok {
			return 0, state, false, fmt.Errorf("pc %d was not compiled", st.PC)
		}

		if cs.assign != "" {
			value, err := run(cs.value, env)
			if err != nil {
				return 0, state, false, fmt.Errorf("pc %d: meta: %w", st.PC, err)
			}
			env = env.Bind(cs.assign, value)
		}

		if cs.exit || cs.next == nil {
			return 0, env, true, nil
		}

		out, err := run(cs.next, env)
		if err != nil {
			return 0, env, false, fmt.Errorf("pc %d: nextpc: %w", st.PC, err)
		}
		next := out.(int)
		if next == program.HaltPC {
			return 0, env, true, nil
		}
		return next, env, false, nil
	}, nil
}
