// Package seed loads demo data from a YAML fixtures file.
//
// Example:
//
//	teams:
//	  - name: Platform
//	polls:
//	  - name: Lunch
//	    status: active
//	    options:
//	      - name: Pizza
//	      - name: Sushi
//	elections:
//	  - name: City Council
//	    start_date: 2025-06-01
//	    end_date: 2025-06-02
//	    election_type: municipal
//	parties:
//	  - name: Green Future
//	    registration_date: 2020-01-15
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vesaa/votedesk/internal/models"
	"github.com/vesaa/votedesk/internal/store"
)

type Team struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type Option struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type Poll struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	PollType    string   `yaml:"poll_type,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	StartDate   string   `yaml:"start_date,omitempty"`
	EndDate     string   `yaml:"end_date,omitempty"`
	Options     []Option `yaml:"options"`
}

type Election struct {
	Name         string `yaml:"name"`
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`
	ElectionType string `yaml:"election_type"`
	Status       string `yaml:"status,omitempty"`
}

// Fixtures is the parsed contents of a fixtures file.
type Fixtures struct {
	Teams     []Team             `yaml:"teams"`
	Polls     []Poll             `yaml:"polls"`
	Elections []Election         `yaml:"elections"`
	Parties   []store.PartyInput `yaml:"parties"`
}

// Load parses fixtures. Unknown keys are rejected so typos surface early.
// An empty document yields empty fixtures.
func Load(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixtures) validate() error {
	var errs []error
	named := func(section string, i int, name string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: name is required", section, i))
		}
	}
	for i, t := range f.Teams {
		named("teams", i, t.Name)
	}
	for i, p := range f.Polls {
		named("polls", i, p.Name)
		for j, o := range p.Options {
			named(fmt.Sprintf("polls[%d].options", i), j, o.Name)
		}
	}
	for i, e := range f.Elections {
		named("elections", i, e.Name)
	}
	for i, p := range f.Parties {
		named("parties", i, p.Name)
	}
	return errors.Join(errs...)
}

// Report counts what Apply did.
type Report struct {
	Teams     int `json:"teams"`
	Polls     int `json:"polls"`
	Elections int `json:"elections"`
	Parties   int `json:"parties"`
	Skipped   int `json:"skipped"`
}

// Apply inserts every fixture whose name is not already taken. Running it
// twice is harmless. It stops at the first store error.
func Apply(ctx context.Context, st *store.Store, f *Fixtures, log *zap.Logger) (*Report, error) {
	rep := &Report{}

	// insert runs create unless a row of model already has name.
	insert := func(model any, kind, name string, counter *int, create func() error) error {
		taken, err := st.NameTaken(ctx, model, name)
		if err != nil {
			return err
		}
		if taken {
			rep.Skipped++
			log.Debug("fixture exists", zap.String("kind", kind), zap.String("name", name))
			return nil
		}
		if err := create(); err != nil {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}
		*counter++
		return nil
	}

	for _, t := range f.Teams {
		err := insert(&models.Team{}, "team", t.Name, &rep.Teams, func() error {
			_, err := st.CreateTeam(ctx, store.TeamInput{Name: t.Name, Description: t.Description})
			return err
		})
		if err != nil {
			return rep, err
		}
	}
	for _, p := range f.Polls {
		err := insert(&models.Poll{}, "poll", p.Name, &rep.Polls, func() error {
			_, err := st.CreatePoll(ctx, p.input())
			return err
		})
		if err != nil {
			return rep, err
		}
	}
	for _, e := range f.Elections {
		err := insert(&models.Election{}, "election", e.Name, &rep.Elections, func() error {
			in, err := e.input()
			if err != nil {
				return err
			}
			_, err = st.CreateElection(ctx, in)
			return err
		})
		if err != nil {
			return rep, err
		}
	}
	for _, p := range f.Parties {
		err := insert(&models.Party{}, "party", p.Name, &rep.Parties, func() error {
			_, err := st.CreateParty(ctx, p)
			return err
		})
		if err != nil {
			return rep, err
		}
	}

	log.Info("fixtures applied",
		zap.Int("teams", rep.Teams),
		zap.Int("polls", rep.Polls),
		zap.Int("elections", rep.Elections),
		zap.Int("parties", rep.Parties),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

func (p Poll) input() store.PollInput {
	in := store.PollInput{
		Name:        p.Name,
		Description: p.Description,
		PollType:    p.PollType,
		Status:      p.Status,
	}
	if p.StartDate != "" {
		in.StartDate = &p.StartDate
	}
	if p.EndDate != "" {
		in.EndDate = &p.EndDate
	}
	for _, o := range p.Options {
		in.Options = append(in.Options, store.OptionInput{Name: o.Name, Description: o.Description})
	}
	return in
}

func (e Election) input() (store.ElectionInput, error) {
	start, err := models.ParseDate(e.StartDate)
	if err != nil {
		return store.ElectionInput{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := models.ParseDate(e.EndDate)
	if err != nil {
		return store.ElectionInput{}, fmt.Errorf("end_date: %w", err)
	}
	return store.ElectionInput{
		Name:         e.Name,
		StartDate:    start,
		EndDate:      end,
		ElectionType: e.ElectionType,
		Status:       e.Status,
	}, nil
}
