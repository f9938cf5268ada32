package coordinator

import (
	"fmt"

	"github.com/faisalx96/llm-eval-sub000/internal/eval/domain"
)

// expandedSpec is one concrete job to be scheduled: a spec paired with at
// most one of its target variants and a batch-unique name.
type expandedSpec struct {
	name   string
	spec   *domain.JobSpec
	target *domain.TargetSpec
}

// expandSpecs turns each spec into one entry per target variant (or a single
// entry when no targets are declared). Expansion happens once, before any
// scheduling. Names are made unique by appending an incrementing counter on
// collision: base, base-2, base-3, ...
func expandSpecs(specs []*domain.JobSpec) []*expandedSpec {
	seen := map[string]bool{}
	unique := func(base string) string {
		name := base
		for i := 2; seen[name]; i++ {
			name = fmt.Sprintf("%s-%d", base, i)
		}
		seen[name] = true
		return name
	}

	var expanded []*expandedSpec
	for _, spec := range specs {
		if len(spec.Targets) == 0 {
			expanded = append(expanded, &expandedSpec{
				name: unique(spec.Name),
				spec: spec,
			})
			continue
		}
		for i := range spec.Targets {
			target := &spec.Targets[i]
			base := spec.Name
			if target.Name != "" {
				base = fmt.Sprintf("%s-%s", spec.Name, target.Name)
			}
			expanded = append(expanded, &expandedSpec{
				name:   unique(base),
				spec:   spec,
				target: target,
			})
		}
	}
	return expanded
}
