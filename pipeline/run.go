package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/Nehilsa2/fb_profile_enrichment/bio"
	"github.com/Nehilsa2/fb_profile_enrichment/browser"
	"github.com/Nehilsa2/fb_profile_enrichment/company"
	"github.com/Nehilsa2/fb_profile_enrichment/config"
	"github.com/Nehilsa2/fb_profile_enrichment/extract"
	"github.com/Nehilsa2/fb_profile_enrichment/failure"
	"github.com/Nehilsa2/fb_profile_enrichment/search"
)

// Runner processes identity records on one surface, strictly one at a time
type Runner struct {
	surface   browser.Surface
	tuning    config.Tuning
	logger    arbor.ILogger
	sinks     []Sink
	observers []Observer
}

func NewRunner(surface browser.Surface, tuning config.Tuning, logger arbor.ILogger) *Runner {
	return &Runner{surface: surface, tuning: tuning, logger: logger}
}

// AddSink registers a destination for finished records
func (r *Runner) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// OnTransition registers an observer for every state change
func (r *Runner) OnTransition(o Observer) {
	r.observers = append(r.observers, o)
}

// Run finds target's profile, reads it and emits the record.
// Missing fields, a missed search and failed company visits all still end in
// Done; a miss is reported through Result.Match. Only a cancelled context, a missing surface or an empty target abort
// the run, and those are returned as fatal errors.
func (r *Runner) Run(ctx context.Context, target string) (*Result, error) {
	target = strings.Join(strings.Fields(target), " ")
	res := &Result{RunID: uuid.New(), Target: target, Match: search.MatchNone, State: StateIdle}

	observers := append([]Observer{r.logTransition}, r.observers...)
	m := NewMachine(res.RunID, target, observers...)

	switch {
	case r.surface == nil:
		return r.abort(m, res, failure.New(failure.KindSession, "pipeline.run", "no browsing surface"))
	case target == "":
		return r.abort(m, res, failure.New(failure.KindConfiguration, "pipeline.run", "empty target name"))
	case ctx.Err() != nil:
		return r.abort(m, res, failure.Wrap(failure.KindSession, "pipeline.run", ctx.Err()))
	}

	match, err := r.locate(ctx, m, target)
	if err != nil {
		return r.abort(m, res, err)
	}
	res.Match = match.Status
	res.MatchedHref = match.Link.Href

	extracted, parsed, secondary, err := r.enrich(ctx, m)
	if err != nil {
		return r.abort(m, res, err)
	}

	if err := m.To(StateAggregated); err != nil {
		return r.abort(m, res, err)
	}
	res.Profile = Aggregate(extracted, parsed, secondary)

	r.emit(ctx, res)

	if err := m.To(StateDone); err != nil {
		return r.abort(m, res, err)
	}
	res.State = m.State()
	r.logger.Info().Str("run_id", res.RunID.String()).Str("match", string(res.Match)).Msg("Run complete")
	return res, nil
}

// locate runs the search and opens the matched profile. A miss at any point
// leaves the machine in NoMatch with an empty resolution.
func (r *Runner) locate(ctx context.Context, m *Machine, target string) (search.Resolution, error) {
	none := search.Resolution{Status: search.MatchNone, Index: -1}
	finder := search.NewFinder(r.surface, r.tuning, r.logger)

	if err := m.To(StateSearching); err != nil {
		return none, err
	}
	r.logger.Info().Str("name", target).Msg("STEP 3: Searching for person")

	results, err := finder.Search(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return none, failure.Wrap(failure.KindSession, "pipeline.search", ctx.Err())
		}
		r.logger.Warn().Err(err).Msg("Search failed, continuing with empty profile")
		return none, m.To(StateNoMatch)
	}

	if err := m.To(StateResolving); err != nil {
		return none, err
	}
	match := finder.Resolve(target, results)
	if !match.Found() {
		r.logger.Warn().Str("name", target).Msg("No matching profile found")
		return match, m.To(StateNoMatch)
	}

	if err := finder.Open(ctx, match, results); err != nil {
		if ctx.Err() != nil {
			return none, failure.Wrap(failure.KindSession, "pipeline.open", ctx.Err())
		}
		r.logger.Warn().Err(err).Str("href", match.Link.Href).Msg("Could not open matched profile")
		return none, m.To(StateNoMatch)
	}

	return match, m.To(StateNavigated)
}

// enrich reads the open page, parses its bio and follows the company links.
// After a miss the open page is the results page, or nothing at all.
func (r *Runner) enrich(ctx context.Context, m *Machine) (extract.ProfileFields, bio.Fields, extract.CompanyFields, error) {
	var (
		extracted extract.ProfileFields
		parsed    bio.Fields
		secondary extract.CompanyFields
	)
	extractor := extract.NewExtractor(r.surface, r.tuning, r.logger)

	if err := m.To(StateExtracting); err != nil {
		return extracted, parsed, secondary, err
	}
	r.logger.Info().Msg("STEP 4: Extracting profile fields")
	extracted = extractor.Profile(ctx)
	if err := r.checkCtx(ctx, "pipeline.extract"); err != nil {
		return extracted, parsed, secondary, err
	}

	if err := m.To(StateBioParsing); err != nil {
		return extracted, parsed, secondary, err
	}
	parsed = bio.Parse(extracted.Bio)
	r.logger.Info().
		Str("position", parsed.Position).
		Str("company", parsed.Company).
		Str("location", parsed.Location).
		Str("marital_status", parsed.MaritalStatus).
		Msg("Extracted from bio")
	if parsed.MaritalStatus == "" {
		parsed.MaritalStatus = extractor.Relationship(ctx)
	}

	plan := company.NewPlan(parsed.Company, extracted.CompanyPage)
	if plan.Empty() {
		return extracted, parsed, secondary, m.To(StateSkip)
	}

	if err := m.To(StateSecondaryNav); err != nil {
		return extracted, parsed, secondary, err
	}
	r.logger.Info().Str("site", plan.SiteURL).Str("page", plan.PageURL).Msg("STEP 5: Following company links")

	secondary, err := company.NewVisitor(r.surface, r.tuning, r.logger).Visit(ctx, plan)
	if err != nil {
		// already logged by the visitor; the fields it could read are kept
		r.logger.Debug().Err(err).Msg("Secondary navigation incomplete")
	}
	if err := r.checkCtx(ctx, "pipeline.secondary"); err != nil {
		return extracted, parsed, secondary, err
	}

	return extracted, parsed, secondary, nil
}

func (r *Runner) emit(ctx context.Context, res *Result) {
	res.State = StateAggregated
	for _, sink := range r.sinks {
		if err := sink.Emit(ctx, res); err != nil {
			r.logger.Warn().Err(err).Msg("Sink failed to store profile")
		}
	}
}

func (r *Runner) checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return failure.Wrap(failure.KindSession, op, err)
	}
	return nil
}

func (r *Runner) abort(m *Machine, res *Result, cause error) (*Result, error) {
	if !m.State().Terminal() {
		if err := m.To(StateAborted); err != nil {
			cause = errors.Join(cause, err)
		}
	}
	res.State = m.State()
	res.Profile = ProfileData{}
	r.logger.Error().Err(cause).Str("target", res.Target).Msg("Run aborted")
	return res, cause
}

func (r *Runner) logTransition(t Transition) {
	r.logger.Debug().Str("from", string(t.From)).Str("to", string(t.To)).Msg("State transition")
}
