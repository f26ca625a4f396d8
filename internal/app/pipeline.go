package app

import (
	"context"
	"log"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// enqueue hands a finalized gesture to the pipeline without blocking the
// session. Outcomes are dropped when the queue is full.
func (a *App) enqueue(o Outcome) {
	select {
	case a.outcomes <- o:
	default:
		log.Printf("app: pipeline busy, dropping outcome %s", o.ID)
	}
}

// runPipeline processes finalized gestures until stopCh is closed.
//
// For every outcome:
//  1. Record the attempt in the store
//  2. On a match, run the configured plugin bindings
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case o := <-a.outcomes:
			a.handleOutcome(o)
		}
	}
}

func (a *App) handleOutcome(o Outcome) {
	a.recordAttempt(o)

	if o.Report.Result != gesture.Matched || a.dispatcher.Bindings() == 0 {
		return
	}

	log.Printf("app: gesture matched (cost %.3f), running %d actions", o.Report.Cost, a.dispatcher.Bindings())

	// Bindings run one after another, each bounded by the executor timeout
	req := plugin.Request{
		Result:    o.Report.Result.String(),
		Cost:      FiniteCost(o.Report.Cost),
		SessionID: o.SessionID,
		AttemptID: o.ID,
	}
	if err := a.dispatcher.Dispatch(context.Background(), req); err != nil {
		log.Printf("app: some actions failed for %s", o.ID)
	}
}

// recordAttempt stores the outcome when a store is configured.
func (a *App) recordAttempt(o Outcome) {
	if a.config.Store == nil {
		return
	}

	attempt := &store.Attempt{
		ID:              o.ID,
		SessionID:       o.SessionID,
		Result:          o.Report.Result.String(),
		Cost:            FiniteCost(o.Report.Cost),
		ReferencePoints: o.Report.ReferencePoints,
		CurrentPoints:   o.Report.CurrentPoints,
		CreatedAt:       o.At,
	}
	if err := a.config.Store.Attempts().Create(attempt); err != nil {
		log.Printf("app: failed to record attempt %s: %v", o.ID, err)
	}
}
