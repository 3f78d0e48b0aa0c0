// Package command resolves command names against a registered table. The
// bootstrapper consumes the resolved boot.Command descriptors; this package
// only owns lookup, aliasing, and near-miss suggestions.
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/BrianJOC/siteshell/boot"
)

// Suggestions further apart than this edit distance are noise.
const maxSuggestionDistance = 3

// Table is an ordered collection of commands with alias support.
type Table struct {
	order   []string
	byName  map[string]*boot.Command
	aliases map[string]string
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{
		byName:  make(map[string]*boot.Command),
		aliases: make(map[string]string),
	}
}

// Register appends commands, returning an error on duplicate names or
// aliases.
func (t *Table) Register(cmds ...*boot.Command) error {
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		if cmd.Name == "" {
			return fmt.Errorf("command name must not be empty")
		}
		if t.defines(cmd.Name) {
			return DuplicateError{Name: cmd.Name}
		}
		for _, alias := range cmd.Aliases {
			if t.defines(alias) {
				return DuplicateError{Name: alias}
			}
		}
		t.byName[cmd.Name] = cmd
		t.order = append(t.order, cmd.Name)
		for _, alias := range cmd.Aliases {
			t.aliases[alias] = cmd.Name
		}
	}
	return nil
}

// Resolve finds a command by name or alias. On a miss it returns a
// NotFoundError carrying near-miss suggestions.
func (t *Table) Resolve(name string) (*boot.Command, error) {
	name = strings.TrimSpace(name)
	if cmd, ok := t.byName[name]; ok {
		return cmd, nil
	}
	if canonical, ok := t.aliases[name]; ok {
		return t.byName[canonical], nil
	}
	return nil, NotFoundError{Name: name, Suggestions: t.suggest(name)}
}

// Commands returns the registered commands in registration order.
func (t *Table) Commands() []*boot.Command {
	out := make([]*boot.Command, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// RunnableAt filters commands to those whose required phase resolves to at
// most reached, using the provided phase resolver. Commands whose phase
// reference does not resolve are omitted.
func (t *Table) RunnableAt(reached int, lookup func(ref string) (int, error)) []*boot.Command {
	var out []*boot.Command
	for _, cmd := range t.Commands() {
		if cmd.Hidden {
			continue
		}
		required, err := lookup(cmd.RequiredPhase)
		if err != nil || required > reached {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func (t *Table) defines(name string) bool {
	if _, ok := t.byName[name]; ok {
		return true
	}
	_, ok := t.aliases[name]
	return ok
}

type scoredName struct {
	name     string
	distance int
}

func (t *Table) suggest(name string) []string {
	if name == "" {
		return nil
	}
	var scored []scoredName
	for _, candidate := range t.order {
		if t.byName[candidate].Hidden {
			continue
		}
		distance := levenshtein.ComputeDistance(name, candidate)
		if distance <= maxSuggestionDistance {
			scored = append(scored, scoredName{name: candidate, distance: distance})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})
	out := make([]string, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.name)
		if len(out) == 3 {
			break
		}
	}
	return out
}
