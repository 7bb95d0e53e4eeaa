package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/adwatchhq/adwatch/internal/platform"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClassifyPollReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: PollReasonDeadlineExceeded,
		},
		{
			name: "unsupported_platform",
			err:  platform.ErrUnsupportedPlatform,
			want: PollReasonUnsupportedPlatform,
		},
		{
			name: "db",
			err:  &pgconn.PgError{Code: "40001"},
			want: PollReasonDB,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: PollReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyPollReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestIncErrorUsesClassifiedReason(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newPollerMetrics(registry, Config{
		ServiceName: "adwatch",
		Environment: "test",
	})

	metrics.IncError("detect_changes", context.DeadlineExceeded)

	got := testutil.ToFloat64(metrics.jobErrors.WithLabelValues("detect_changes", PollReasonDeadlineExceeded))
	if got != 1 {
		t.Fatalf("expected error count 1, got %v", got)
	}
}

func TestIncAccountPolled(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newPollerMetrics(registry, Config{
		ServiceName: "adwatch",
		Environment: "test",
	})

	metrics.IncAccountPolled("meta")
	metrics.IncAccountPolled("meta")

	got := testutil.ToFloat64(metrics.accountsPolled.WithLabelValues("meta"))
	if got != 2 {
		t.Fatalf("expected polled count 2, got %v", got)
	}
}
