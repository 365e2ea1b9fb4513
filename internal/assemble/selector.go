package assemble

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"ctxgraph/internal/graph"
	"ctxgraph/internal/logging"
	"ctxgraph/internal/pathutil"
)

// Policy is how optional references are chosen.
type Policy string

const (
	PolicyNone  Policy = "none"  // no pills and no task: nothing is selected
	PolicyPills Policy = "pills" // filename-stem substring match against pills
	PolicyTask  Policy = "task"  // plain entries always, conditional entries by predicate
)

// PredicateTimeout bounds a single predicate evaluation.
const PredicateTimeout = 100 * time.Millisecond

// Selector decides which optional references to load.
type Selector struct {
	pills []string
	task  string
}

// NewSelector builds a selector. Blank pills are dropped; when none are
// left the task decides.
func NewSelector(task string, pills []string) Selector {
	var kept []string
	for _, p := range pills {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, strings.ToLower(p))
		}
	}
	return Selector{pills: kept, task: task}
}

// Policy returns the policy in effect.
func (s Selector) Policy() Policy {
	switch {
	case len(s.pills) > 0:
		return PolicyPills
	case s.task != "":
		return PolicyTask
	default:
		return PolicyNone
	}
}

// Select reports whether ref should be loaded.
func (s Selector) Select(ref graph.Reference) bool {
	switch s.Policy() {
	case PolicyPills:
		stem := strings.ToLower(pathutil.Stem(ref.Path))
		for _, p := range s.pills {
			if strings.Contains(stem, p) {
				return true
			}
		}
		return false
	case PolicyTask:
		if !ref.IsConditional() {
			return true
		}
		return MatchesTask(ref.When, s.task)
	default:
		return false
	}
}

// MatchesTask runs predicate as a case-insensitive regular expression
// against task. Surrounding quotes are stripped. A predicate that does not
// compile, or that times out, is matched as a literal substring instead.
// An empty predicate or task never matches.
func MatchesTask(predicate, task string) bool {
	predicate = strings.Trim(predicate, `"'`)
	if predicate == "" || task == "" {
		return false
	}

	re, err := regexp2.Compile(predicate, regexp2.IgnoreCase)
	if err == nil {
		re.MatchTimeout = PredicateTimeout
		matched, err := re.MatchString(task)
		if err == nil {
			return matched
		}
		logging.AssembleWarn("Predicate %q timed out, using substring match", predicate)
	} else {
		logging.AssembleDebug("Predicate %q is not a valid expression: %v", predicate, err)
	}
	return strings.Contains(strings.ToLower(task), strings.ToLower(predicate))
}
