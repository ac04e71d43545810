// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/bitproto/bitbench/internal/matrix"
)

// Plan renders m as a tree of pairs in order of first appearance, each with the
// scenarios its generation feeds.
func Plan(m matrix.Matrix) string {
	pairs := m.Pairs()
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%d scenario(s), %d generation(s)", m.Len(), len(pairs)))

	for _, p := range pairs {
		branch := tree.AddBranch("generate " + p.String())
		for _, s := range m.ScenariosFor(p) {
			leaf := s.Label()
			if flag := s.Level.Flag(); flag != "" {
				leaf += " (" + flag + ")"
			}
			branch.AddNode(leaf)
		}
	}
	return tree.String()
}

// Targets renders every target with its dependencies and scenario count.
func Targets(ts *matrix.TargetSet) string {
	tree := treeprint.New()
	tree.SetValue("targets")

	for _, name := range ts.Names() {
		t, _ := ts.Get(name)
		branch := tree.AddBranch(fmt.Sprintf("%s (%d scenario(s))", t.Name, len(t.Scenarios)))
		for _, dep := range t.DependsOn {
			branch.AddNode("depends on " + dep)
		}
		for _, s := range t.Scenarios {
			branch.AddNode(s.Label())
		}
	}
	return tree.String()
}
