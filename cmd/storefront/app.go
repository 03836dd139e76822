package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/checkout"
	"github.com/flicky/go-storefront/internal/client"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/model"
)

type app struct {
	cfg     *config.ClientConfig
	log     *slog.Logger
	in      *bufio.Scanner
	out     io.Writer
	session *checkout.Session
	api     *client.Client
	cart    *checkout.Cart
	gate    *checkout.Gate
}

func newApp(cfg *config.ClientConfig, log *slog.Logger, in io.Reader, out io.Writer) *app {
	session := checkout.NewSession()
	api := client.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.Timeout}, session)
	return &app{
		cfg:     cfg,
		log:     log,
		in:      bufio.NewScanner(in),
		out:     out,
		session: session,
		api:     api,
		cart:    checkout.NewCart(api, checkout.Pricing{Shipping: cfg.ShippingFee, TaxRate: cfg.TaxRate}),
		gate:    checkout.NewGate(api, session),
	}
}

func (a *app) login(ctx context.Context, email, password string) error {
	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.session.SignIn(resp.Token, resp.User)
	fmt.Fprintln(a.out, resp.Token)
	return nil
}

// signIn restores the session from the configured token and loads the cart.
func (a *app) signIn(ctx context.Context) error {
	if a.cfg.Token == "" {
		return errors.New("not signed in: set STOREFRONT_TOKEN (see storefront login)")
	}
	a.session.SignIn(a.cfg.Token, model.UserProfile{})
	profile, err := a.api.GetProfile(ctx)
	if err != nil {
		return a.explain(err)
	}
	a.session.SetProfile(profile)
	if err := a.cart.Load(ctx); err != nil {
		return a.explain(err)
	}
	return nil
}

func (a *app) explain(err error) error {
	n := checkout.Describe(err)
	if checkout.RedirectFor(err) == checkout.RouteLogin {
		return fmt.Errorf("%s: sign in again", n.Text)
	}
	return fmt.Errorf("%s: %w", n.Text, err)
}

func (a *app) showCart(ctx context.Context) error {
	if err := a.signIn(ctx); err != nil {
		return err
	}
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tSIZE\tCOLOR\tQTY\tPRICE\tTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.Name, it.Size, it.Color, it.Quantity, it.Price.StringFixed(2), it.LineTotal().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t := a.cart.Totals().Format()
	fmt.Fprintf(a.out, "\nSubtotal  %s\nShipping  %s\nTax       %s\nTotal     %s\n", t.Subtotal, t.Shipping, t.Tax, t.GrandTotal)
	return nil
}

func (a *app) setQuantity(ctx context.Context, id uuid.UUID, n int) error {
	if err := a.signIn(ctx); err != nil {
		return err
	}
	if err := a.cart.UpdateQuantity(ctx, id, n); err != nil {
		return a.explain(err)
	}
	fmt.Fprintln(a.out, "Cart updated.")
	return nil
}

func (a *app) remove(ctx context.Context, id uuid.UUID) error {
	if err := a.signIn(ctx); err != nil {
		return err
	}
	if err := a.cart.Remove(ctx, id); err != nil {
		return a.explain(err)
	}
	fmt.Fprintln(a.out, "Product removed.")
	return nil
}

func (a *app) checkout(ctx context.Context, ids []uuid.UUID, method string) error {
	if err := a.signIn(ctx); err != nil {
		return err
	}
	if a.gate.ShouldPrompt() {
		if err := a.completeProfile(ctx); err != nil {
			return err
		}
	}

	coord := checkout.NewCoordinator(checkout.Deps{
		Cart:     a.cart,
		Gate:     a.gate,
		Session:  a.session,
		Payments: a.api,
		Orders:   a.api,
		Script:   checkout.NewLazyScript(func(context.Context) error { return nil }),
		Widget:   &promptWidget{in: a.in, out: a.out},
		Currency: a.cfg.Currency,
		Log:      a.log,
	})
	defer coord.Close()

	res := coord.Checkout(ctx, checkout.Request{CartIDs: ids, Method: checkout.Method(method)})
	fmt.Fprintln(a.out, res.Notice.Text)
	if res.Err != nil {
		if res.Redirect == checkout.RouteLogin {
			return errors.New("session expired: sign in again")
		}
		if errors.Is(res.Err, checkout.ErrProfileIncomplete) || errors.Is(res.Err, checkout.ErrPaymentCancelled) {
			return nil
		}
		return res.Err
	}
	return nil
}

var addressFields = []checkout.FormField{
	checkout.FieldPersonalAddress,
	checkout.FieldAddressVillage,
	checkout.FieldCity,
	checkout.FieldState,
	checkout.FieldZip,
	checkout.FieldCountry,
	checkout.FieldLandmark,
}

// completeProfile walks the address form, starting at the first blank field,
// until the backend reports the profile complete or input runs out. Enter
// keeps the current value.
func (a *app) completeProfile(ctx context.Context) error {
	for {
		profile, _ := a.session.Profile()
		fmt.Fprintf(a.out, "Your profile is incomplete (%s).\n", strings.Join(checkout.MissingFields(profile), ", "))

		form := a.gate.Form()
		start := int(form.FocusField())
		for _, field := range addressFields[start:] {
			v := field.Value(form)
			fmt.Fprintf(a.out, "%s [%s]: ", field, v)
			if !a.in.Scan() {
				a.gate.Dismiss()
				return errors.New("profile not completed")
			}
			if in := strings.TrimSpace(a.in.Text()); in != "" {
				field.Set(&form, in)
			}
		}

		complete, err := a.gate.Submit(ctx, form)
		if err != nil {
			return a.explain(err)
		}
		if complete {
			fmt.Fprintln(a.out, "Profile updated.")
			return nil
		}
	}
}

// promptWidget stands in for the hosted payment widget: it shows the order
// to pay and reads back the gateway's payment id and signature. An empty
// payment id cancels.
type promptWidget struct {
	in  *bufio.Scanner
	out io.Writer
}

func (w *promptWidget) Open(ctx context.Context, opts checkout.WidgetOptions) (checkout.WidgetResult, error) {
	fmt.Fprintf(w.out, "Pay %s %d (minor units) for gateway order %s with key %s\n",
		opts.Currency, opts.Amount, opts.OrderID, opts.Key)

	read := func(prompt string) (string, bool) {
		fmt.Fprint(w.out, prompt)
		if ctx.Err() != nil || !w.in.Scan() {
			return "", false
		}
		return strings.TrimSpace(w.in.Text()), true
	}

	paymentID, ok := read("razorpay_payment_id (blank to cancel): ")
	if !ok || paymentID == "" {
		return checkout.WidgetResult{}, checkout.ErrPaymentCancelled
	}
	signature, ok := read("razorpay_signature: ")
	if !ok {
		return checkout.WidgetResult{}, checkout.ErrPaymentCancelled
	}
	return checkout.WidgetResult{OrderID: opts.OrderID, PaymentID: paymentID, Signature: signature}, nil
}
