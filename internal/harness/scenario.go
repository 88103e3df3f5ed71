package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/kuitang/dealer-verify/internal/fixture"
	"github.com/kuitang/dealer-verify/internal/routemock"
)

// Fixture is a CSV file written before the page is opened.
type Fixture struct {
	Path string
	CSV  fixture.CSV
}

// Scenario is one fixed verification: mocks, a single navigation, an ordered
// list of steps and a screenshot.
type Scenario struct {
	Name           string
	Description    string
	Route          string // app route appended to the base URL
	Mocks          []routemock.Mock
	Fixtures       []Fixture
	Steps          []Step
	Screenshot     string
	SuccessMessage string
}

// Validate checks the scenario is runnable without touching the browser.
func (s Scenario) Validate() error {
	var problems []string
	if strings.TrimSpace(s.Name) == "" {
		problems = append(problems, "name is empty")
	}
	if strings.TrimSpace(s.Screenshot) == "" {
		problems = append(problems, "screenshot path is empty")
	}
	if len(s.Steps) == 0 {
		problems = append(problems, "no steps")
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			problems = append(problems, fmt.Sprintf("step %d: %v", i+1, err))
		}
	}
	for _, f := range s.Fixtures {
		if strings.TrimSpace(f.Path) == "" {
			problems = append(problems, "fixture path is empty")
		}
	}
	if _, err := routemock.NewTable(s.Mocks...); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("scenario %q: %s", s.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Result records a completed scenario.
type Result struct {
	Scenario    string
	URL         string
	Screenshot  string
	Started     time.Time
	Duration    time.Duration
	MockHits    map[string]int
	Passthrough int
	Shadowed    []string
}
