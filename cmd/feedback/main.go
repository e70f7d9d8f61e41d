package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Capstonepdm/Katipudroid/internal/client"
	"github.com/Capstonepdm/Katipudroid/internal/gate"
	"github.com/Capstonepdm/Katipudroid/internal/logger"
	"github.com/Capstonepdm/Katipudroid/internal/pkg/apperror"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Init("warn")
	logger.SetTextFormatter()

	switch os.Args[1] {
	case "submit":
		if err := cmdSubmit(ctx, os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "submit failed:", err)
			os.Exit(1)
		}
	case "list":
		if err := cmdList(ctx, os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "list failed:", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(2)
	}
}

func cmdList(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	api := fs.String("api", "http://localhost:8080", "feedback API base URL")
	limit := fs.Int("limit", 10, "number of feedbacks to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := client.New(*api, nil).List(ctx, *limit)
	if err != nil {
		return err
	}
	printList(out, list)
	return nil
}

func cmdSubmit(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	api := fs.String("api", "http://localhost:8080", "feedback API base URL")
	name := fs.String("name", "", "your name")
	email := fs.String("email", "", "email to verify")
	message := fs.String("message", "", "feedback text")
	rating := fs.Int("rating", 0, "rating from 1 to 5")
	readyTimeout := fs.Duration("ready-timeout", gate.DefaultReadyTimeout, "how long to wait for the API to become healthy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend := client.New(*api, nil)

	readiness := gate.NewReadiness()
	go func() {
		_, err := backend.Health(ctx)
		readiness.Signal(err)
	}()

	g := gate.New(backend, gate.Options{
		Readiness:    readiness,
		ReadyTimeout: *readyTimeout,
		Logger:       logger.WithComponent("feedback-cli"),
		Refresher: gate.RefresherFunc(func(ctx context.Context) error {
			list, err := backend.List(ctx, 5)
			if err != nil {
				return err
			}
			printList(out, list)
			return nil
		}),
		OnCountdownExpired: func() {
			fmt.Fprintln(out, "\nThe code has expired. Type 'resend' to get a new one.")
		},
	})
	defer g.Close()

	form := gate.Form{Name: *name, Email: *email, Message: *message, Rating: *rating}
	if err := g.Submit(ctx, form); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		snap := g.Snapshot()
		if snap.State == gate.Idle && snap.LastID != "" {
			fmt.Fprintln(out, snap.Message)
			fmt.Fprintln(out, "Feedback id:", snap.LastID)
			return nil
		}
		printStatus(out, snap)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return errors.New("input closed before the feedback was submitted")
		}

		line := strings.TrimSpace(scanner.Text())
		var err error
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			g.Reset()
			return errors.New("cancelled")
		case "resend":
			err = g.Resend(ctx)
		case "retry":
			err = g.RetrySubmit(ctx)
		default:
			err = g.EnterCode(ctx, line)
		}
		if err != nil {
			fmt.Fprintln(out, "Error:", apperror.MessageOf(err))
			if errors.Is(err, gate.ErrClosed) || errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
}

func printStatus(out io.Writer, snap gate.Snapshot) {
	if snap.Message != "" {
		fmt.Fprintln(out, snap.Message)
	}
	hints := []string{}
	if snap.CanRetry {
		hints = append(hints, "'retry'")
	}
	if snap.ResendEnabled {
		hints = append(hints, "'resend'")
	}
	hints = append(hints, "'quit'")

	fmt.Fprintf(out, "Code expires in %s. Enter the 6-digit code or %s: ",
		formatRemaining(snap.Remaining), strings.Join(hints, ", "))
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func printList(out io.Writer, list *client.ListResponse) {
	fmt.Fprintf(out, "\nLatest feedbacks (%d):\n", list.TotalCount)
	for _, f := range list.Feedbacks {
		fmt.Fprintf(out, "  %s  %s  %s\n    %s\n", stars(f.Rating), f.Name, f.FormattedDate, f.Message)
	}
}

// stars рисует рейтинг, зажатый в [0, 5]: сервер мог прислать что угодно.
func stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("*", rating)
}

func printUsage() {
	fmt.Println(`feedback: submit and browse game feedback

Usage:
  feedback submit -name Ana -email ana@example.com -message "Great game" -rating 5 [-api URL]
  feedback list [-limit 10] [-api URL]`)
}
