package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ctxgraph/internal/graph"
)

func TestMatchesTask(t *testing.T) {
	tests := []struct {
		name      string
		predicate string
		task      string
		want      bool
	}{
		{"plain word", "deploy", "please deploy now", true},
		{"case-insensitive", "DEPLOY", "Deploy it", true},
		{"alternation", "rollback|revert", "revert the release", true},
		{"no match", "deploy", "refactor code", false},
		{"quotes stripped", `"deploy"`, "deploy", true},
		{"single quotes stripped", `'dep.oy'`, "DEPLOY", true},
		{"invalid falls back to substring", "fix(", "please FIX( this", true},
		{"invalid substring miss", "fix(", "fix this", false},
		{"empty predicate", "", "anything", false},
		{"empty task", "x", "", false},
		{"lookahead supported", `deploy(?!ment)`, "deployment plan", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesTask(tt.predicate, tt.task))
		})
	}
}

func TestSelector_Policy(t *testing.T) {
	assert.Equal(t, PolicyNone, NewSelector("", nil).Policy())
	assert.Equal(t, PolicyNone, NewSelector("", []string{"", "  "}).Policy())
	assert.Equal(t, PolicyTask, NewSelector("deploy", []string{" "}).Policy())
	assert.Equal(t, PolicyPills, NewSelector("deploy", []string{"k8s"}).Policy())
}

func TestSelector_TaskPolicyExactSubset(t *testing.T) {
	refs := []graph.Reference{
		graph.Conditional("a.md", "deploy"),
		graph.Conditional("b.md", "test|verify"),
		graph.Conditional("c.md", "ship"),
		graph.Conditional("d.md", ""),
		graph.Plain("e.md"),
	}
	s := NewSelector("Deploy and VERIFY", nil)

	var got []string
	for _, r := range refs {
		if s.Select(r) {
			got = append(got, r.Path)
		}
	}
	assert.Equal(t, []string{"a.md", "b.md", "e.md"}, got)
}

func TestSelector_PillsIgnoreTask(t *testing.T) {
	s := NewSelector("deploy", []string{"Guide"})
	assert.True(t, s.Select(graph.Conditional("docs/k8s-guide.md", "never")))
	assert.False(t, s.Select(graph.Conditional("docs/deploy.md", "deploy")))
	assert.False(t, s.Select(graph.Plain("docs/other.md")))
	assert.False(t, s.Select(graph.Plain("guide-dir/other.md")), "only the filename stem is matched")
}

func TestSelector_NoneSelectsNothing(t *testing.T) {
	s := NewSelector("", nil)
	assert.False(t, s.Select(graph.Plain("a.md")))
	assert.False(t, s.Select(graph.Conditional("a.md", ".*")))
}
