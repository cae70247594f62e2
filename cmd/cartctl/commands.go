package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/niksmo/storefront/internal/app"
	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/pricing"
	"github.com/spf13/cobra"
)

func newQuoteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <subtotal_cents>",
		Short: "Print shipping, tax and total for a subtotal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtotal, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || subtotal < 0 {
				return fmt.Errorf("invalid subtotal %q", args[0])
			}
			q := pricing.New(c.cfg.Pricing).Quote(subtotal)
			return printQuote(cmd.OutOrStdout(), q)
		},
	}
}

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session_id>",
		Short: "Print the persisted cart of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepository(cmd.Context(), args[0],
				func(repo cart.SnapshotRepository) error {
					snap, err := repo.Load(cmd.Context())
					if errors.Is(err, port.ErrNotFound) {
						fmt.Fprintf(cmd.OutOrStdout(), "no cart for %q\n", args[0])
						return nil
					}
					if err != nil {
						return err
					}
					store := cart.New(
						cart.WithSnapshot(snap),
						cart.WithPolicy(pricing.New(c.cfg.Pricing)),
					)
					return printCart(cmd.OutOrStdout(), store.State())
				})
		},
	}
}

func newClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <session_id>",
		Short: "Remove the persisted cart of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withRepository(cmd.Context(), args[0],
				func(repo cart.SnapshotRepository) error {
					if err := repo.Clear(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", repo.Key())
					return nil
				})
		},
	}
}

// withRepository opens the configured storage for the duration of fn.
func (c *cli) withRepository(
	ctx context.Context, sessionID string, fn func(cart.SnapshotRepository) error,
) error {
	if sessionID == "" {
		return errors.New("empty session id")
	}

	s, err := app.OpenStorage(ctx, c.cfg)
	if err != nil {
		return err
	}
	if cl, ok := s.(interface{ Close() }); ok {
		defer cl.Close()
	}

	if bg, ok := s.(port.BackgroundKVStorage); ok {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		var wg sync.WaitGroup
		wg.Add(1)
		go bg.Run(ctx, cancel, &wg)
		wg.Wait()
	}

	key := cart.SnapshotKey(c.cfg.Cart.Namespace, sessionID)
	repo := cart.NewSnapshotRepository(s, key, c.cfg.Storage.WriteTimeout)
	return fn(repo)
}

func printQuote(w io.Writer, q pricing.Quote) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "subtotal\t%s\t\n", formatCents(q.SubtotalCents))
	fmt.Fprintf(tw, "shipping\t%s\t\n", formatCents(q.ShippingCents))
	fmt.Fprintf(tw, "tax\t%s\t\n", formatCents(q.TaxCents))
	fmt.Fprintf(tw, "total\t%s\t\n", formatCents(q.TotalCents))
	return tw.Flush()
}

func printCart(w io.Writer, s domain.CartState) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tTITLE\tQTY\tPRICE\tLINE")
	for _, it := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Product.Title, it.Quantity,
			formatCents(it.PriceCents),
			formatCents(it.PriceCents*int64(it.Quantity)),
		)
	}
	fmt.Fprintln(tw)
	t := s.Totals
	fmt.Fprintf(tw, "items\t%d\n", t.ItemCount)
	fmt.Fprintf(tw, "subtotal\t%s\n", formatCents(t.SubtotalCents))
	fmt.Fprintf(tw, "shipping\t%s\n", formatCents(t.ShippingCents))
	fmt.Fprintf(tw, "tax\t%s\n", formatCents(t.TaxCents))
	if s.CouponCode != "" {
		fmt.Fprintf(tw, "coupon\t%s (-%s)\n", s.CouponCode, formatCents(t.DiscountCents))
	}
	fmt.Fprintf(tw, "total\t%s\n", formatCents(t.TotalCents))
	return tw.Flush()
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
