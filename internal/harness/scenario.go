// Package harness executes YAML-defined coordination scenarios against
// an in-memory collection and captures a line-oriented trace of every
// engine decision plus the final label/item state. Traces are compared
// against golden files, so everything here must be deterministic: fixed
// scheduling day, a sequential group-name source, and a logical wall
// clock that advances a fixed amount per reading.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"kinmark/internal/card"
	"kinmark/internal/collection"
	"kinmark/internal/engine"
)

// Scenario defines one coordination scenario.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Today is the fixed scheduling day index.
	Today int `yaml:"today"`

	// Records seeds the collection before the steps run.
	Records []RecordSeed `yaml:"records"`

	// Steps is the sequence of engine operations to execute.
	Steps []Step `yaml:"steps"`
}

// RecordSeed seeds one record and its items.
type RecordSeed struct {
	ID     card.RecordID `yaml:"id"`
	Labels []string      `yaml:"labels,omitempty"`
	Items  []ItemSeed    `yaml:"items"`
}

// ItemSeed seeds one item. Activity defaults to active.
type ItemSeed struct {
	ID       card.ItemID   `yaml:"id"`
	Phase    card.Phase    `yaml:"phase"`
	Activity card.Activity `yaml:"activity,omitempty"`
	Due      int           `yaml:"due,omitempty"`
}

// Step is one engine operation.
//
// Supported ops: mark, unmark, add, answer, review, release, spread,
// catchup, reconcile, day. "answer" records a local review and delivers
// the item-answered event; "review" only appends a history entry with an
// explicit id, simulating a review performed on another device.
type Step struct {
	Op      string        `yaml:"op"`
	Items   []card.ItemID `yaml:"items,omitempty"`
	Item    card.ItemID   `yaml:"item,omitempty"`
	Name    string        `yaml:"name,omitempty"`
	Group   string        `yaml:"group,omitempty"`
	Gap     int           `yaml:"gap,omitempty"`
	ID      int64         `yaml:"id,omitempty"`
	Value   int           `yaml:"value,omitempty"`
	Resolve string        `yaml:"resolve,omitempty"`
}

// Result carries the captured trace.
type Result struct {
	Trace []string
}

// Bytes renders the trace as golden-file content.
func (r *Result) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range r.Trace {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	seenItems := make(map[card.ItemID]bool)
	for _, rec := range s.Records {
		if rec.ID <= 0 {
			return nil, fmt.Errorf("scenario %s: record id must be positive", path)
		}
		for _, it := range rec.Items {
			if seenItems[it.ID] {
				return nil, fmt.Errorf("scenario %s: duplicate item id %d", path, it.ID)
			}
			seenItems[it.ID] = true
			if !it.Phase.Valid() {
				return nil, fmt.Errorf("scenario %s: item %d: invalid phase %q", path, it.ID, it.Phase)
			}
		}
	}
	return &s, nil
}

// baseMillis anchors the harness wall clock; each reading advances a
// fixed 1000 seconds so catch-up high-water marks are reproducible.
const baseMillis = 1_700_000_000_000

// Run executes the scenario and returns its trace.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	store, err := collection.OpenMemory()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.SetToday(ctx, scenario.Today); err != nil {
		return nil, err
	}
	for _, rec := range scenario.Records {
		if err := store.CreateRecord(ctx, rec.ID, rec.Labels); err != nil {
			return nil, err
		}
		for _, seed := range rec.Items {
			activity := seed.Activity
			if activity == "" {
				activity = card.ActivityActive
			}
			it := card.Item{ID: seed.ID, RecordID: rec.ID, Phase: seed.Phase, Activity: activity, Due: seed.Due}
			if err := store.CreateItem(ctx, it); err != nil {
				return nil, err
			}
		}
	}

	clockReads := 0
	names := 0
	eng := engine.New(store,
		engine.WithNow(func() time.Time {
			clockReads++
			return time.UnixMilli(baseMillis + int64(clockReads)*1_000_000)
		}),
		engine.WithNameSource(func() string {
			names++
			return fmt.Sprintf("g%02d", names)
		}),
	)

	res := &Result{}
	localReviews := int64(0)
	for i, step := range scenario.Steps {
		line, err := runStep(ctx, store, eng, step, &localReviews)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		res.Trace = append(res.Trace, line)
	}

	if err := appendState(ctx, store, scenario, res); err != nil {
		return nil, err
	}
	return res, nil
}

func runStep(ctx context.Context, store *collection.Store, eng *engine.Engine, step Step, localReviews *int64) (string, error) {
	switch step.Op {
	case "mark":
		resolve := engine.ResolveNone
		switch step.Resolve {
		case "use-existing":
			resolve = engine.ResolveUseExisting
		case "new":
			resolve = engine.ResolveCreateNew
		case "":
		default:
			return "", fmt.Errorf("unknown resolve %q", step.Resolve)
		}
		r, err := eng.Mark(ctx, step.Items, step.Name, resolve)
		if err != nil {
			return "", err
		}
		if r.Reason == engine.ReasonAmbiguousGroups {
			return fmt.Sprintf("mark items=%v reason=%s existing=%v", step.Items, r.Reason, r.Existing), nil
		}
		return fmt.Sprintf("mark items=%v group=%s modified=%d reason=%s", step.Items, r.Group, r.Modified, r.Reason), nil

	case "unmark":
		r, err := eng.Unmark(ctx, step.Items)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("unmark items=%v modified=%d released=%d", step.Items, r.Modified, r.Released), nil

	case "add":
		r, err := eng.AddToGroup(ctx, step.Items, step.Group)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("add items=%v group=%s modified=%d reason=%s", step.Items, r.Group, r.Modified, r.Reason), nil

	case "answer":
		*localReviews++
		// Local review ids sit far below the catch-up base so a later
		// catch-up never replays what was already handled here.
		rev := card.Review{ID: *localReviews, ItemID: step.Item}
		if err := store.AddReview(ctx, rev); err != nil {
			return "", err
		}
		r, err := eng.OnAnswer(ctx, step.Item)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("answer item=%d buried=%d pushed=%d", step.Item, r.Buried, r.Pushed), nil

	case "review":
		if step.ID == 0 {
			return "", fmt.Errorf("review step requires an explicit id")
		}
		if err := store.AddReview(ctx, card.Review{ID: step.ID, ItemID: step.Item}); err != nil {
			return "", err
		}
		return fmt.Sprintf("review item=%d id=%d", step.Item, step.ID), nil

	case "release":
		n, err := eng.ReleaseNext(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("release released=%d", n), nil

	case "spread":
		if step.Group == "" {
			n, err := eng.SpreadAll(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("spread all rescheduled=%d", n), nil
		}
		gap := step.Gap
		if gap < 1 {
			gap = 1
		}
		n, err := eng.Spread(ctx, step.Group, gap)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("spread group=%s rescheduled=%d", step.Group, n), nil

	case "catchup":
		r, err := eng.CatchUp(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("catchup replayed=%d buried=%d", r.Replayed, r.Buried), nil

	case "reconcile":
		r, err := eng.OnProfileActivated(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reconcile replayed=%d buried=%d released=%d rescheduled=%d",
			r.CatchUp.Replayed, r.CatchUp.Buried, r.Released, r.Rescheduled), nil

	case "day":
		if err := store.SetToday(ctx, step.Value); err != nil {
			return "", err
		}
		return fmt.Sprintf("day value=%d", step.Value), nil
	}

	return "", fmt.Errorf("unknown op %q", step.Op)
}

// appendState dumps the final label and item state, records ascending.
func appendState(ctx context.Context, store *collection.Store, scenario *Scenario, res *Result) error {
	ids := make([]card.RecordID, 0, len(scenario.Records))
	for _, rec := range scenario.Records {
		ids = append(ids, rec.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	res.Trace = append(res.Trace, "-- state --")
	for _, id := range ids {
		rec, err := store.Record(ctx, id)
		if err != nil {
			return err
		}
		res.Trace = append(res.Trace, fmt.Sprintf("record %d labels=%v", rec.ID, rec.Labels))
		items, err := store.Items(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range items {
			res.Trace = append(res.Trace, fmt.Sprintf("item %d phase=%s activity=%s due=%d",
				it.ID, it.Phase, it.Activity, it.Due))
		}
	}
	return nil
}
