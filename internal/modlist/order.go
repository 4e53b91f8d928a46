package modlist

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/bbpatcher/internal/ctxlog"
	"github.com/vk/bbpatcher/internal/dag"
)

// CycleError reports mods whose relations cannot all be satisfied.
type CycleError struct {
	// Mods lists the identifiers that could not be ordered, sorted.
	Mods []string
	Err  *dag.CycleError
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("load order constraints form a cycle among mods: %s", strings.Join(e.Mods, ", "))
}

func (e *CycleError) Unwrap() error { return e.Err }

// order sorts mods by their relations first and their priorities second.
func order(ctx context.Context, mods []Mod) ([]Mod, error) {
	logger := ctxlog.FromContext(ctx)
	g := dag.New()
	byID := make(map[string]Mod, len(mods))
	for _, m := range mods {
		g.AddNode(m.ID)
		byID[m.ID] = m
	}

	for _, m := range mods {
		for _, dep := range m.after() {
			if g.Has(dep) {
				if err := g.AddEdge(dep, m.ID); err != nil {
					return nil, err
				}
			}
		}
		for _, next := range m.LoadBefore {
			if g.Has(next) {
				if err := g.AddEdge(m.ID, next); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, asCycleError(err)
	}

	var ranked []Mod
	for _, m := range mods {
		if m.HasPriority {
			ranked = append(ranked, m)
		}
	}
	slices.SortFunc(ranked, func(a, b Mod) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.ID, b.ID))
	})
	for i, a := range ranked {
		for _, b := range ranked[i+1:] {
			if a.Priority == b.Priority {
				continue
			}
			if g.Reaches(b.ID, a.ID) {
				logger.Debug("Relation overrides priority.", "mod", a.ID, "priority", a.Priority, "after", b.ID)
				continue
			}
			if err := g.AddEdge(a.ID, b.ID); err != nil {
				return nil, err
			}
		}
	}

	ids, err := g.TopologicalSort()
	if err != nil {
		return nil, asCycleError(err)
	}
	out := make([]Mod, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

func asCycleError(err error) error {
	var ce *dag.CycleError
	if errors.As(err, &ce) {
		return &CycleError{Mods: ce.Nodes, Err: ce}
	}
	return err
}
