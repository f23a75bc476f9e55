package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixelflare/studio/internal/client"
	"github.com/pixelflare/studio/internal/gateway"
)

func apiError(action string, err error) error {
	return fmt.Errorf("%s: %s", action, gateway.MessageOf(err, err.Error()))
}

func newTable(app *App) *tabwriter.Writer {
	return tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
}

// NewServicesCmd creates the services command
func NewServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Browse photography services",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List services and add-ons",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runListServices(cmd.Context(), app)
		},
	})
	return cmd
}

func runListServices(ctx context.Context, app *App) error {
	services, err := app.Client.ListServices(ctx)
	if err != nil {
		return apiError("failed to list services", err)
	}
	addOns, err := app.Client.ListAdditionalServices(ctx)
	if err != nil {
		return apiError("failed to list additional services", err)
	}

	if len(services) == 0 {
		app.printf("No services available.\n")
		return nil
	}

	w := newTable(app)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE/HR\tDURATION")
	fmt.Fprintln(w, "──\t────\t────────\t────────\t────────")
	for _, s := range services {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%d min\n", s.ID, s.Name, s.Category, s.BasePrice, s.DurationMinutes)
	}
	w.Flush()

	if len(addOns) > 0 {
		app.printf("\nAdd-ons:\n\n")
		w = newTable(app)
		fmt.Fprintln(w, "ID\tNAME\tPRICE")
		fmt.Fprintln(w, "──\t────\t─────")
		for _, a := range addOns {
			fmt.Fprintf(w, "%s\t%s\t$%.2f\n", a.ID, a.Name, a.Price)
		}
		w.Flush()
	}
	return nil
}

// NewPhotographersCmd creates the photographers command
func NewPhotographersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photographers",
		Short: "Browse photographers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List photographers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runListPhotographers(cmd.Context(), app)
		},
	})
	return cmd
}

func runListPhotographers(ctx context.Context, app *App) error {
	photographers, err := app.Client.ListPhotographers(ctx)
	if err != nil {
		return apiError("failed to list photographers", err)
	}
	if len(photographers) == 0 {
		app.printf("No photographers found.\n")
		return nil
	}

	w := newTable(app)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALIZATION\tLOCATION\tRATING")
	fmt.Fprintln(w, "──\t────\t──────────────\t────────\t──────")
	for _, p := range photographers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f (%d)\n", p.ID, p.Name, p.Specialization, p.Location, p.Rating, p.Reviews)
	}
	w.Flush()
	return nil
}

// NewBookingsCmd creates the bookings command and its subcommands
func NewBookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage your bookings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runListBookings(cmd.Context(), app)
		},
	})

	var in client.BookingInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Book a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runCreateBooking(cmd.Context(), app, in)
		},
	}
	create.Flags().StringVar(&in.ServiceID, "service", "", "Service ID")
	create.Flags().StringVar(&in.PhotographerID, "photographer", "", "Photographer ID (optional)")
	create.Flags().StringSliceVar(&in.AdditionalServiceIDs, "addon", nil, "Add-on ID (repeatable)")
	create.Flags().StringVar(&in.Date, "date", "", "Date, YYYY-MM-DD")
	create.Flags().StringVar(&in.Time, "time", "", "Start time, HH:MM")
	create.Flags().IntVar(&in.Hours, "hours", 1, "Hours")
	create.Flags().StringVar(&in.Location, "location", "", "Location")
	create.Flags().StringVar(&in.Notes, "notes", "", "Notes for the photographer")
	_ = create.MarkFlagRequired("service")
	_ = create.MarkFlagRequired("date")
	_ = create.MarkFlagRequired("time")
	_ = create.MarkFlagRequired("location")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel an upcoming booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runCancelBooking(cmd.Context(), app, args[0])
		},
	})

	var quote client.PriceRequest
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a session before booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			return runQuote(cmd.Context(), app, quote)
		},
	}
	quoteCmd.Flags().StringVar(&quote.ServiceID, "service", "", "Service ID")
	quoteCmd.Flags().IntVar(&quote.Hours, "hours", 1, "Hours")
	quoteCmd.Flags().StringSliceVar(&quote.AdditionalServiceIDs, "addon", nil, "Add-on ID (repeatable)")
	_ = quoteCmd.MarkFlagRequired("service")
	cmd.AddCommand(quoteCmd)

	return cmd
}

func runListBookings(ctx context.Context, app *App) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}
	bookings, err := app.Client.ListBookings(ctx)
	if err != nil {
		return apiError("failed to list bookings", err)
	}
	if len(bookings) == 0 {
		app.printf("No bookings yet.\n")
		app.printf("\nBook a session with: studio bookings create --service <id> --date YYYY-MM-DD --time HH:MM --location <place>\n")
		return nil
	}

	w := newTable(app)
	fmt.Fprintln(w, "ID\tSERVICE\tDATE\tTIME\tHOURS\tSTATUS\tPRICE")
	fmt.Fprintln(w, "──\t───────\t────\t────\t─────\t──────\t─────")
	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t$%.2f\n", b.ID, b.ServiceName, b.Date, b.Time, b.Hours, b.Status, b.Price)
	}
	w.Flush()
	return nil
}

func runCreateBooking(ctx context.Context, app *App, in client.BookingInput) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}
	b, err := app.Client.CreateBooking(ctx, in)
	if err != nil {
		return apiError("failed to create booking", err)
	}
	app.printf("✓ Booked %s on %s at %s (%s)\n", b.ServiceName, b.Date, b.Time, b.ID)
	app.printf("  Total: $%.2f\n", b.Price)
	return nil
}

func runCancelBooking(ctx context.Context, app *App, id string) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}
	b, err := app.Client.GetBooking(ctx, id)
	if err != nil {
		return apiError("failed to load booking", err)
	}

	in := client.BookingInput{
		ServiceID:            b.ServiceID,
		PhotographerID:       b.PhotographerID,
		AdditionalServiceIDs: b.AdditionalServiceIDs,
		Date:                 b.Date,
		Time:                 b.Time,
		Hours:                b.Hours,
		Location:             b.Location,
		Notes:                b.Notes,
		Status:               client.BookingCancelled,
	}
	if _, err := app.Client.UpdateBooking(ctx, id, in); err != nil {
		return apiError("failed to cancel booking", err)
	}
	app.printf("✓ Booking %s cancelled\n", id)
	return nil
}

func runQuote(ctx context.Context, app *App, req client.PriceRequest) error {
	if _, err := app.requireSession(); err != nil {
		return err
	}
	q, err := app.Client.CalculatePrice(ctx, req)
	if err != nil {
		return apiError("failed to price booking", err)
	}

	w := newTable(app)
	fmt.Fprintf(w, "Base (%d h)\t$%.2f\n", q.Hours, q.BasePrice)
	fmt.Fprintf(w, "Add-ons\t$%.2f\n", q.AddOns)
	fmt.Fprintf(w, "Subtotal\t$%.2f\n", q.Subtotal)
	fmt.Fprintf(w, "Tax\t$%.2f\n", q.Tax)
	fmt.Fprintf(w, "Total\t$%.2f %s\n", q.Total, strings.ToUpper(q.Currency))
	w.Flush()
	return nil
}
