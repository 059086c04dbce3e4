package translator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/askdb/internal/metrics"
	"github.com/mohammad-safakhou/askdb/internal/store"
	"github.com/mohammad-safakhou/askdb/provider"
)

// Source identifies which stage produced the executed filter.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is the outcome of a single question: the filter that ran, the
// records it matched, and how it was produced.
type Result struct {
	Filter   store.Filter
	Records  []store.Record
	Source   Source
	Attempts int
	Elapsed  time.Duration
}

// Translator turns natural language questions into filters for one
// collection. Allowed fields are discovered once from a sample record at
// construction and held for the translator's lifetime.
type Translator struct {
	store      store.Store
	invoker    *Invoker
	collection string
	fields     []string
	logger     *log.Logger
}

// New builds a translator bound to collection. Field discovery reads a
// single record; an empty collection yields a translator with no fields,
// which rejects every question until data arrives.
func New(ctx context.Context, st store.Store, prov provider.Provider, collection string, attempts int, delay time.Duration) (*Translator, error) {
	logger := log.New(log.Writer(), "[TRANSLATE] ", log.LstdFlags)
	t := &Translator{
		store:      st,
		collection: collection,
		logger:     logger,
		invoker: &Invoker{
			Provider: prov,
			Attempts: attempts,
			Delay:    delay,
			Logger:   logger,
		},
	}
	rec, ok, err := st.FindOne(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("sample record: %w", err)
	}
	if ok {
		t.fields = FieldsFromRecord(rec)
	}
	return t, nil
}

// Fields returns the allowed field names, sorted.
func (t *Translator) Fields() []string { return t.fields }

// Collection returns the collection this translator queries.
func (t *Translator) Collection() string { return t.collection }

// Ask runs the full pipeline: build the prompt, call the model, sanitize
// and validate the reply, fall back to keyword parsing if the reply is
// unusable, then execute the filter. An empty result set is a success.
func (t *Translator) Ask(ctx context.Context, question string) (Result, error) {
	start := time.Now()
	var res Result

	if len(t.fields) == 0 {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		return res, ErrNoFields
	}

	prompt := BuildPrompt(t.fields, question)

	genStart := time.Now()
	raw, attempts, err := t.invoker.Generate(ctx, prompt)
	metrics.QueryDuration.WithLabelValues("generate").Observe(time.Since(genStart).Seconds())
	res.Attempts = attempts
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeGenerationError).Inc()
		return res, err
	}

	verdict := Validate(Sanitize(raw), t.fields)
	if verdict.Kind == VerdictOK {
		res.Filter = verdict.Filter
		res.Source = SourceModel
	} else {
		t.logger.Printf("model output rejected (%s), trying fallback", verdict.Kind)
		fb, ferr := FallbackFilter(question, t.fields)
		if ferr != nil {
			metrics.FallbackTotal.WithLabelValues("miss").Inc()
			metrics.QueriesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			return res, &RejectionError{Verdict: verdict, FallbackErr: ferr}
		}
		fv := validateObject(map[string]interface{}(fb), t.fields)
		if fv.Kind != VerdictOK {
			metrics.FallbackTotal.WithLabelValues("miss").Inc()
			metrics.QueriesTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			return res, &RejectionError{Verdict: fv}
		}
		metrics.FallbackTotal.WithLabelValues("hit").Inc()
		res.Filter = fv.Filter
		res.Source = SourceFallback
	}

	execStart := time.Now()
	records, err := t.store.Find(ctx, t.collection, res.Filter)
	metrics.QueryDuration.WithLabelValues("execute").Observe(time.Since(execStart).Seconds())
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeExecutionError).Inc()
		return res, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	res.Records = records
	res.Elapsed = time.Since(start)
	if len(records) == 0 {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
	} else {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	}
	return res, nil
}
