// Package formflow drives the admin create/edit form lifecycle: a small
// state machine that validates a declarative schema before allowing exactly
// one submit call, with an in-flight guard against double submission.
package formflow

import (
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	Idle State = iota
	Validating
	Submitting
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// ErrInFlight is returned when Submit is called while a previous submission
// has not finished.
var ErrInFlight = errors.New("formflow: submission already in flight")

// ValidationError aggregates every schema violation found in one pass.
type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("formflow: %d validation problem(s): %v", len(v.Problems), v.Problems)
}

// FieldRule is one declarative constraint on a named form value.
type FieldRule struct {
	Name     string
	Required bool
	MinLen   int      // minimum length for string values
	Positive bool     // numeric values must be > 0
	Enum     []string // string value must be a member
	NonEmpty bool     // list values must have at least one element
}

type Schema []FieldRule

// Validate applies every rule to the supplied values and collects all
// problems rather than stopping at the first.
func (s Schema) Validate(values map[string]interface{}) []string {
	var problems []string

	for _, rule := range s {
		v, ok := values[rule.Name]
		if !ok || v == nil {
			if rule.Required {
				problems = append(problems, rule.Name+" is required")
			}
			continue
		}

		switch val := v.(type) {
		case string:
			if rule.Required && val == "" {
				problems = append(problems, rule.Name+" is required")
				continue
			}
			if rule.MinLen > 0 && len(val) < rule.MinLen {
				problems = append(problems, fmt.Sprintf("%s must be at least %d characters", rule.Name, rule.MinLen))
			}
			if len(rule.Enum) > 0 && !contains(rule.Enum, val) {
				problems = append(problems, fmt.Sprintf("%s must be one of %v", rule.Name, rule.Enum))
			}
		case int:
			if rule.Positive && val <= 0 {
				problems = append(problems, rule.Name+" must be positive")
			}
		case float64:
			if rule.Positive && val <= 0 {
				problems = append(problems, rule.Name+" must be positive")
			}
		case []string:
			if rule.NonEmpty && len(val) == 0 {
				problems = append(problems, rule.Name+" must not be empty")
			}
		case []interface{}:
			if rule.NonEmpty && len(val) == 0 {
				problems = append(problems, rule.Name+" must not be empty")
			}
		}
	}

	return problems
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Submitter performs the single write call. existingID is empty for a
// create and the entity id for an update; the submitter picks the verb.
type Submitter func(values map[string]interface{}, existingID string) error

// Form is the controller. It is safe for concurrent use; a second Submit
// while one is running fails fast with ErrInFlight instead of producing a
// duplicate write.
type Form struct {
	mu       sync.Mutex
	state    State
	inFlight bool
	err      error

	schema Schema
	submit Submitter
}

func New(schema Schema, submit Submitter) *Form {
	return &Form{schema: schema, submit: submit, state: Idle}
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Err returns the error from the last submission attempt, if any.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Submit runs the full lifecycle: Validating, then exactly one write call,
// then Success or Error. An Error outcome leaves the form submittable
// again; nothing retries automatically.
func (f *Form) Submit(values map[string]interface{}, existingID string) error {
	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.inFlight = true
	f.state = Validating
	f.mu.Unlock()

	finish := func(s State, err error) error {
		f.mu.Lock()
		f.state = s
		f.err = err
		f.inFlight = false
		f.mu.Unlock()
		return err
	}

	if problems := f.schema.Validate(values); len(problems) > 0 {
		return finish(Error, &ValidationError{Problems: problems})
	}

	f.mu.Lock()
	f.state = Submitting
	f.mu.Unlock()

	if err := f.submit(values, existingID); err != nil {
		return finish(Error, err)
	}
	return finish(Success, nil)
}
