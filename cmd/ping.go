package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ortelius/pdvd-trust/backend"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
)

// pingView is the result of a reachability probe
type pingView struct {
	Backend  string        `json:"backend" yaml:"backend"`
	Attempts int           `json:"attempts" yaml:"attempts"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

func newPingCmd(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the trust catalog is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.ping(cmd.Context(), wait)
			if err != nil {
				return err
			}
			return a.render(view, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", view.Backend, trustedStyle.Render("reachable"))
				fmt.Fprintf(w, "attempts:\t%d\n", view.Attempts)
				fmt.Fprintf(w, "elapsed:\t%s\n", view.Elapsed.Round(time.Millisecond))
			})
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "keep retrying with exponential backoff for up to this long")
	return cmd
}

// ping probes the catalog root once, or retries until wait has elapsed
func (a *app) ping(ctx context.Context, wait time.Duration) (pingView, error) {
	view := pingView{Backend: a.backend.String()}
	start := time.Now()

	op := func() error {
		view.Attempts++
		return backend.Ping(ctx, a.backend, a.opts...)
	}

	if wait <= 0 {
		if err := op(); err != nil {
			return view, err
		}
		view.Elapsed = time.Since(start)
		return view, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = wait

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		a.logger.Info("Retrying catalog ping",
			zap.Int("attempt", view.Attempts),
			zap.Duration("next", next),
			zap.Error(err))
	})
	if err != nil {
		return view, fmt.Errorf("catalog not reachable after %d attempts: %w", view.Attempts, err)
	}
	view.Elapsed = time.Since(start)
	return view, nil
}
