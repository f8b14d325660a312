package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes the scenario and compares its trace against
// testdata/golden/<name>.golden. Regenerate with `go test -update`.
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	res, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, res.Bytes())
}

// RunScenarioFile loads a scenario from disk and checks it against its
// golden trace.
func RunScenarioFile(t *testing.T, path string) {
	t.Helper()

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	RunWithGolden(t, scenario)
}
