package screen

import (
	"context"
	"time"

	"github.com/pitabwire/shinsei/internal/form"
	"github.com/pitabwire/shinsei/internal/observability"
	"github.com/pitabwire/shinsei/model"
)

// Submission outcomes.
const (
	SubmissionAccepted = "accepted"
	SubmissionFailed   = "failed"
)

// Instrumented wraps a Submitter with a span and a submission metric. The
// span carries the session id when ctx holds a RequestContext.
type Instrumented struct {
	Next     form.Submitter
	Recorder Recorder
}

func (s Instrumented) Submit(ctx context.Context, sub form.Submission) error {
	ctx, span := observability.StartSpan(ctx, "form.Submit",
		observability.AttrWorkflowID.String(sub.WorkflowID),
		observability.AttrSubmissionID.String(sub.ID.String()),
	)
	if rctx := model.RequestContextFrom(ctx); rctx != nil {
		span.SetAttributes(observability.AttrSessionID.String(rctx.SessionID))
	}
	start := time.Now()
	err := s.Next.Submit(ctx, sub)
	observability.EndSpanWithError(span, err)

	if s.Recorder != nil {
		outcome := SubmissionAccepted
		if err != nil {
			outcome = SubmissionFailed
		}
		s.Recorder.RecordSubmission(sub.WorkflowID, outcome, time.Since(start))
	}
	return err
}
