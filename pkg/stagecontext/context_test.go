package stagecontext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStageBegin_Metadata(t *testing.T) {
	id := uuid.New()
	ctx, cancel := StageBegin(context.Background(), id, "summary", 7, time.Minute)
	defer cancel()

	md := GetStageMetadata(ctx)
	if md.SessionID != id || md.Stage != "summary" || md.Generation != 7 {
		t.Fatalf("unexpected metadata %+v", md)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatalf("expected deadline")
	}
	if Elapsed(ctx) < 0 {
		t.Fatalf("elapsed must not be negative")
	}
}

func TestStageEnd_RecoversPanicAndRunsOnce(t *testing.T) {
	calls := 0
	err := StageEnd(context.Background(), func(context.Context) error {
		calls++
		panic("boom")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one call and an error, got %d %v", calls, err)
	}

	calls = 0
	err = StageEnd(context.Background(), func(context.Context) error {
		calls++
		return fmt.Errorf("provider down")
	})
	if err == nil || calls != 1 {
		t.Fatalf("failed stages must not be retried, got %d calls", calls)
	}
}

func TestStageEnd_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := StageEnd(ctx, func(context.Context) error { called = true; return nil })
	if called || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation without calling fn, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSucceeded},
		{context.DeadlineExceeded, OutcomeTimeout},
		{fmt.Errorf("w: %w", context.Canceled), OutcomeCanceled},
		{errors.New("x"), OutcomeFailed},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
