package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/ratingsmarket/ratings-contract/binder"
	"github.com/ratingsmarket/ratings-contract/contracts/ratings/ratingsconst"
	"github.com/ratingsmarket/ratings-contract/eventsync"
	"github.com/ratingsmarket/ratings-contract/poller"
	"github.com/ratingsmarket/ratings-contract/rpc/ratings"
	"github.com/ratingsmarket/ratings-contract/session"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func statusString(s int64) string {
	switch s {
	case ratingsconst.StatusOpen:
		return "open"
	case ratingsconst.StatusPaidOut:
		return "paid out"
	case ratingsconst.StatusRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("unknown (%d)", s)
	}
}

func (r *runner) show(c *cli.Context) error {
	key, err := parseKey(c.Args().First())
	if err != nil {
		return err
	}

	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := s.Reader().GetRequest(key)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Key:\t%s\n", key.StringLE())
	fmt.Fprintf(tw, "Investor:\t%s\n", address.Uint160ToString(req.Investor))
	fmt.Fprintf(tw, "Name:\t%s\n", req.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", req.Description)
	fmt.Fprintf(tw, "Code:\t%s\n", req.Code)
	fmt.Fprintf(tw, "URL:\t%s\n", req.URL)
	fmt.Fprintf(tw, "Pointer:\t%s\n", req.Pointer)
	fmt.Fprintf(tw, "Deadline:\t%s\n", time.Unix(req.Deadline.Int64(), 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(tw, "Reward:\t%s GAS\n", eventsync.FormatGAS(req.Reward))
	fmt.Fprintf(tw, "Auditors:\t%s/%s\n", req.AuditorCount, req.MaxAuditors)
	fmt.Fprintf(tw, "Submissions:\t%s\n", req.SubmissionCount)
	fmt.Fprintf(tw, "Status:\t%s\n", statusString(req.Status.Int64()))

	if v := c.String("auditor"); v != "" {
		auditor, err := session.ParseHash160(v)
		if err != nil {
			return fmt.Errorf("invalid auditor address: %w", err)
		}

		m, err := s.Reader().GetMembership(key, auditor)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}

		fmt.Fprintf(tw, "Auditor:\t%s\n", address.Uint160ToString(auditor))
		fmt.Fprintf(tw, "  Joined:\t%t\n", m.Joined)
		if m.Submissions.Sign() > 0 {
			fmt.Fprintf(tw, "  Rating:\t%s\n", m.Rating)
			fmt.Fprintf(tw, "  Analysis:\t%s\n", m.Pointer)
			fmt.Fprintf(tw, "  Submissions:\t%s\n", m.Submissions)
		}
	}

	if v := c.String("contributor"); v != "" {
		account, err := session.ParseHash160(v)
		if err != nil {
			return fmt.Errorf("invalid contributor address: %w", err)
		}

		amount, err := s.Reader().ContributionOf(key, account)
		if err != nil {
			return fmt.Errorf("get contribution: %w", err)
		}

		fmt.Fprintf(tw, "Contribution of %s:\t%s GAS\n", address.Uint160ToString(account), eventsync.FormatGAS(amount))
	}

	return tw.Flush()
}

func (r *runner) submit(c *cli.Context) error {
	deadline, err := parseDeadline(c.String("deadline"))
	if err != nil {
		return err
	}

	value, err := parseGAS(c.String("value"))
	if err != nil {
		return err
	}

	form := binder.RequestForm{
		Name:        c.String("name"),
		Description: c.String("description"),
		Code:        c.String("code"),
		URL:         c.String("url"),
		Deadline:    deadline,
		MaxAuditors: c.Int64("auditors"),
		Pointer:     c.String("pointer"),
		Value:       value,
	}
	if err := form.Validate(); err != nil {
		return err
	}

	return r.send(c, func(s *session.Session, w *ratings.Contract, _ *binder.Modal) (poller.Tx, error) {
		return form.Submit(w)
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.RequestSubmittedEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Request %s submitted with reward %s GAS\n", e.Key.StringLE(), eventsync.FormatGAS(e.Reward))
		}
		return nil
	})
}

func (r *runner) contribute(c *cli.Context) error {
	value, err := parseGAS(c.String("value"))
	if err != nil {
		return err
	}

	return r.sendModal(c, func(_ *session.Session, w *ratings.Contract, m *binder.Modal) (poller.Tx, error) {
		return m.Contribute(w, value)
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.ContributedEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Reward of %s is %s GAS now\n", e.Key.StringLE(), eventsync.FormatGAS(e.Total))
		}
		return nil
	})
}

func (r *runner) join(c *cli.Context) error {
	return r.sendModal(c, func(s *session.Session, w *ratings.Contract, m *binder.Modal) (poller.Tx, error) {
		acc, err := s.Account()
		if err != nil {
			return poller.Tx{}, err
		}
		return m.Join(w, acc)
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.AuditorJoinedEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Joined %s as auditor #%s\n", e.Key.StringLE(), e.Count)
		}
		return nil
	})
}

func (r *runner) rate(c *cli.Context) error {
	form := binder.RatingForm{
		Rating:  c.Int64("rating"),
		Pointer: c.String("pointer"),
	}
	if err := form.Validate(); err != nil {
		return err
	}

	return r.sendModal(c, func(s *session.Session, w *ratings.Contract, m *binder.Modal) (poller.Tx, error) {
		acc, err := s.Account()
		if err != nil {
			return poller.Tx{}, err
		}
		return m.Respond(w, acc, form)
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.RatingSubmittedEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Rating %s submitted for %s\n", e.Rating, e.Key.StringLE())
		}
		return nil
	})
}

func (r *runner) payout(c *cli.Context) error {
	return r.sendModal(c, func(s *session.Session, _ *ratings.Contract, m *binder.Modal) (poller.Tx, error) {
		return r.sendKey(s, m, "payout")
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.PaidOutEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Paid %s GAS to %s\n", eventsync.FormatGAS(e.Amount), address.Uint160ToString(e.To))
		}
		return nil
	})
}

func (r *runner) refund(c *cli.Context) error {
	return r.sendModal(c, func(s *session.Session, _ *ratings.Contract, m *binder.Modal) (poller.Tx, error) {
		return r.sendKey(s, m, "refund")
	}, func(log *result.ApplicationLog) error {
		events, err := ratings.RefundedEventsFromApplicationLog(log)
		if err != nil {
			return err
		}

		for _, e := range events {
			fmt.Fprintf(os.Stdout, "Refunded %s GAS to %s\n", eventsync.FormatGAS(e.Amount), address.Uint160ToString(e.To))
		}
		return nil
	})
}

func (r *runner) balance(c *cli.Context) error {
	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.Close()

	acc, err := s.Account()
	if err != nil {
		return err
	}

	v, err := s.Async().BalanceAsync(r.ctx, acc).Await(r.ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	fmt.Fprintf(os.Stdout, "%s: %s GAS\n", address.Uint160ToString(acc), eventsync.FormatGAS(v))
	return nil
}

// sendKey invokes the contract method accepting the request key only.
func (r *runner) sendKey(s *session.Session, m *binder.Modal, method string) (poller.Tx, error) {
	key, err := m.Detail().Key()
	if err != nil {
		return poller.Tx{}, err
	}

	sent, err := s.Async().SendAsync(r.ctx, method, key).Await(r.ctx)
	if err != nil {
		return poller.Tx{}, err
	}

	return poller.Tx{Hash: sent.Hash, ValidUntilBlock: sent.ValidUntilBlock}, nil
}

type sendFunc func(*session.Session, *ratings.Contract, *binder.Modal) (poller.Tx, error)

// sendModal opens the modal for the request passed as the first argument
// and sends a transaction through it.
func (r *runner) sendModal(c *cli.Context, f sendFunc, report func(*result.ApplicationLog) error) error {
	key, err := parseKey(c.Args().First())
	if err != nil {
		return err
	}

	m := binder.OpenAttributes(map[string]string{eventsync.AttrKey: key.StringLE()})

	return r.sendWith(c, m, f, report)
}

func (r *runner) send(c *cli.Context, f sendFunc, report func(*result.ApplicationLog) error) error {
	return r.sendWith(c, nil, f, report)
}

// sendWith sends a transaction, waits for it to be accepted and reports the
// produced notifications.
func (r *runner) sendWith(c *cli.Context, m *binder.Modal, f sendFunc, report func(*result.ApplicationLog) error) error {
	s, err := r.open(c)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.Writer()
	if err != nil {
		return err
	}

	tx, err := f(s, w, m)
	if err != nil {
		return err
	}

	r.log.Info("transaction sent",
		zap.Stringer("tx", tx.Hash),
		zap.Uint32("valid until", tx.ValidUntilBlock))

	log, err := s.Confirm(r.ctx, tx)
	if err != nil {
		return fmt.Errorf("confirm transaction: %w", err)
	}

	r.log.Info("transaction accepted", zap.Stringer("tx", tx.Hash))

	return report(log)
}
