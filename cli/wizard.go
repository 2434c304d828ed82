package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/amp-labs/effort-economics/debounce"
	"github.com/amp-labs/effort-economics/logger"
	"github.com/amp-labs/effort-economics/report"
	"github.com/amp-labs/effort-economics/validators"
	"github.com/amp-labs/effort-economics/wizard"
)

// DefaultDialCode pre-fills the country code prompt.
const DefaultDialCode = "+91"

var errBadSelection = errors.New("invalid selection")

// Runner walks one person through the wizard at the terminal.
type Runner struct {
	Prompter Prompter
	Deps     wizard.Deps
	Out      io.Writer
	// Usage, when set, adds the usage counter to the printed report.
	Usage func(ctx context.Context) (int, error)
	// Options are passed to the session.
	Options []wizard.Option
}

// Run drives a fresh session to a stored result and prints it. Prompt
// errors, including Ctrl-C, end the run.
func (r *Runner) Run(ctx context.Context) (*report.Document, error) {
	// Postal code suggestions fire when the person finishes typing the
	// code, not after a delay.
	clock := debounce.NewManualClock()

	opts := append([]wizard.Option{}, r.Options...)
	opts = append(opts, wizard.WithSuggestDebounce(debounce.DefaultWait, clock))

	session := wizard.New(r.Deps, opts...)
	defer session.Close()

	ctx = logger.WithSessionId(ctx, session.ID())

	r.printf("%s", BannerAutoWidth(ctx, "EFFORT ECONOMICS\nDiscover where your effort compounds", AlignCenter))

	if err := r.identity(ctx, session); err != nil {
		return nil, err
	}

	if err := r.birth(ctx, session); err != nil {
		return nil, err
	}

	id, err := r.location(ctx, session, clock)
	if err != nil {
		return nil, err
	}

	doc, err := report.Load(ctx, r.Deps.Store, id)
	if err != nil {
		return nil, err
	}

	if r.Usage != nil {
		if count, err := r.Usage(ctx); err == nil {
			doc.Usage = count
		}
	}

	r.printf("\n")

	if err := report.RenderText(r.Out, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *Runner) identity(ctx context.Context, session *wizard.Session) error {
	r.step(wizard.StepIdentity, "Your details")

	for {
		code, err := r.Prompter.Input("Country code", DefaultDialCode)
		if err != nil {
			return err
		}

		phone, err := r.Prompter.Input("Phone number", "")
		if err != nil {
			return err
		}

		consent, err := r.Prompter.Confirm("I agree to the Terms & Privacy Policy")
		if err != nil {
			return err
		}

		err = session.SubmitIdentity(ctx, validators.IdentityInput{CountryCode: code, Phone: phone, Consent: consent})
		if err == nil {
			return nil
		}

		if err := r.report(err); err != nil {
			return err
		}
	}
}

func (r *Runner) birth(ctx context.Context, session *wizard.Session) error {
	r.step(wizard.StepBirth, "Birth details")

	for {
		date, err := r.Prompter.Input("Birth date (YYYY-MM-DD)", "")
		if err != nil {
			return err
		}

		raw, err := r.Prompter.Input("Birth time (HH:MM:SS)", "")
		if err != nil {
			return err
		}

		birthTime := session.BlurBirthTime(raw)
		if birthTime != raw {
			r.printf("Birth time: %s\n", birthTime)
		}

		err = session.SubmitBirth(ctx, validators.BirthInput{Date: date, Time: birthTime})
		if err == nil {
			return nil
		}

		if err := r.report(err); err != nil {
			return err
		}
	}
}

func (r *Runner) location(ctx context.Context, session *wizard.Session, clock *debounce.ManualClock) (string, error) {
	r.step(wizard.StepLocation, "Birth location")

	for {
		form := session.View().Form

		country, err := SelectCountry(r.Prompter, form.Country)
		if err != nil {
			return "", err
		}

		if err := session.EditCountry(ctx, country); err != nil {
			return "", err
		}

		postal, err := r.Prompter.Input("Pin code", form.PostalCode)
		if err != nil {
			return "", err
		}

		if err := session.EditPostalCode(ctx, postal); err != nil {
			return "", err
		}

		clock.Advance(debounce.DefaultWait)

		form = session.View().Form
		if form.Country != country {
			r.printf("Country set to %s from the pin code\n", form.Country)
		}

		city, err := r.Prompter.Input("City", form.City)
		if err != nil {
			return "", err
		}

		if city != form.City {
			if err := session.EditCity(ctx, city); err != nil {
				return "", err
			}
		}

		r.printf("%s\n", wizard.LabelVerifying)

		if _, err := session.Verify(ctx); err != nil {
			if err := r.report(err); err != nil {
				return "", err
			}

			continue
		}

		view := session.View()
		r.printf("%s\n", view.Verify.Label)

		if p := view.Preview; p != nil {
			r.printf("%s\nLat: %s, Lon: %s\n", p.DisplayName, p.Latitude, p.Longitude)
		}

		ok, err := r.Prompter.Confirm("Calculate now")
		if err != nil {
			return "", err
		}

		if !ok {
			continue
		}

		id, err := r.submit(ctx, session)
		if err != nil {
			return "", err
		}

		if id != "" {
			return id, nil
		}
	}
}

// submit returns an empty id when the person should revisit the location.
func (r *Runner) submit(ctx context.Context, session *wizard.Session) (string, error) {
	for {
		r.printf("Calculating...\n")

		id, err := session.Submit(ctx)
		if err == nil {
			return id, nil
		}

		if err := r.report(err); err != nil {
			return "", err
		}

		if !session.View().SubmitEnabled {
			return "", nil
		}

		again, err := r.Prompter.Confirm("Try again")
		if err != nil {
			return "", err
		}

		if !again {
			return "", nil
		}
	}
}

// report prints the message for a recoverable error and returns any other
// error.
func (r *Runner) report(err error) error {
	msg := wizard.Message(err)
	if msg == "" {
		return err
	}

	r.printf("✗ %s\n", msg)

	return nil
}

func (r *Runner) step(step wizard.Step, title string) {
	r.printf("\n%sStep %d of %d: %s\n", DividerAutoWidth(), step, wizard.StepLocation, title)
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}
