// genwatch starts draft generation for a submission and follows the event
// stream in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yungbote/regdraft-backend/internal/platform/envutil"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
	"github.com/yungbote/regdraft-backend/internal/streamclient"
)

func main() {
	baseURL := flag.String("url", envutil.String("REGDRAFT_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", envutil.String("REGDRAFT_TOKEN", ""), "bearer token sent with the stream request")
	plain := flag.Bool("plain", false, "print the draft as it streams instead of the interactive view")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: genwatch [flags] <submission-id>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(watch(*baseURL, *token, flag.Arg(0), *plain))
}

func watch(baseURL, token, submissionID string, plain bool) int {
	// Log output would tear the alternate screen; only warnings reach stderr.
	log, err := logger.New("test")
	if err != nil {
		log = logger.Nop()
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wake := make(chan struct{}, 1)
	consumer := streamclient.NewConsumer(
		&streamclient.HTTPTransport{BaseURL: baseURL, Token: token},
		func(streamclient.Snapshot) {
			select {
			case wake <- struct{}{}:
			default:
			}
		},
		log,
	)
	if err := consumer.Start(ctx, submissionID); err != nil {
		fmt.Fprintf(os.Stderr, "genwatch: %v\n", err)
		return 1
	}

	var final streamclient.Snapshot
	if plain {
		final = follow(os.Stdout, consumer, wake)
	} else {
		p := tea.NewProgram(newModel(consumer, wake, submissionID), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "genwatch: %v\n", err)
		}
		consumer.Cancel()
		final = consumer.Snapshot()
		fmt.Println(summary(final))
	}
	return exitCode(final)
}

// follow writes each new piece of draft text to w until the run ends.
func follow(w io.Writer, r stream, wake <-chan struct{}) streamclient.Snapshot {
	printed := 0
	for {
		<-wake
		snap := r.Snapshot()
		if len(snap.Text) > printed {
			io.WriteString(w, snap.Text[printed:])
			printed = len(snap.Text)
		}
		if snap.State.Terminal() {
			io.WriteString(w, "\n"+summary(snap)+"\n")
			return snap
		}
	}
}

func summary(s streamclient.Snapshot) string {
	switch s.State {
	case streamclient.StateCompleted:
		if line := complianceLine(s); line != "" {
			return "completed: " + line
		}
		return "completed"
	case streamclient.StateError:
		return "failed: " + errorText(s)
	}
	return string(s.State)
}

func exitCode(s streamclient.Snapshot) int {
	switch s.State {
	case streamclient.StateCompleted:
		return 0
	case streamclient.StateCancelled:
		return 130
	}
	return 1
}
