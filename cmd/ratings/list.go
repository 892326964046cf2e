package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/metrics"
	"github.com/ratingsmarket/ratings-contract/session"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (r *runner) list(c *cli.Context) error {
	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.Close()

	table := eventsync.NewTable()

	syncer, err := s.NewSyncer(table)
	if err != nil {
		return err
	}

	if err := syncer.History(r.ctx); err != nil {
		return err
	}

	return table.Render(os.Stdout)
}

func (r *runner) follow(c *cli.Context) error {
	cfg, err := r.config(c)
	if err != nil {
		return err
	}
	if v := c.String("metrics"); v != "" {
		cfg.Metrics.Address = v
	}

	s, err := session.Open(r.ctx, cfg, r.log)
	if err != nil {
		return err
	}
	defer s.Close()

	table := eventsync.NewTable()

	syncer, err := s.NewSyncer(table)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(r.ctx)

	if cfg.Metrics.Address != "" {
		g.Go(func() error { return r.serveMetrics(ctx, cfg.Metrics.Address) })
	}

	g.Go(func() error {
		err := syncer.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error { return printRows(ctx, table) })

	return g.Wait()
}

// printRows prints rows as they are appended to the table.
func printRows(ctx context.Context, table *eventsync.Table) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	var printed int
	for {
		rows := table.Rows()
		if err := eventsync.WriteRows(tw, rows[printed:]); err != nil {
			return err
		}
		printed = len(rows)

		if err := tw.Flush(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-table.Added():
		}
	}
}

func (r *runner) serveMetrics(ctx context.Context, addr string) error {
	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.log.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}()

	r.log.Info("serving metrics", zap.String("address", addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}

	return nil
}
