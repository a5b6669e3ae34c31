package service

import (
	"time"

	"wallet-persona-engine/internal/domain/entity"
)

// PersonaAnalyzer composes the four pipeline stages into one pure analysis
// call: transactions -> signals -> scores -> persona fields -> result.
// It performs no I/O and holds no state across calls, so concurrent use
// needs no synchronization.
type PersonaAnalyzer struct {
	extractor *SignalExtractor
	engine    *ScoreEngine
	composer  *PersonaComposer
	assembler *ResultAssembler
}

// NewPersonaAnalyzer creates a new persona analyzer.
func NewPersonaAnalyzer() *PersonaAnalyzer {
	return &PersonaAnalyzer{
		extractor: NewSignalExtractor(),
		engine:    NewScoreEngine(),
		composer:  NewPersonaComposer(),
		assembler: NewResultAssembler(),
	}
}

// Analyze runs the full pipeline against a validated transaction list. The
// now parameter is the evaluation instant, captured once per invocation so
// a single call is internally consistent; identical input and instant yield
// an identical result.
func (a *PersonaAnalyzer) Analyze(walletAddress string, transactions []*entity.Transaction, now time.Time) (*entity.PersonaResult, error) {
	signals := a.extractor.Extract(transactions, now)
	scores := a.engine.Compute(signals)

	return a.assembler.Assemble(
		walletAddress,
		scores,
		a.composer.Title(scores, signals),
		a.composer.Summary(scores, signals),
		a.composer.Traits(scores, signals),
		a.composer.NotableProtocols(signals),
	)
}
