package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fluentprep/exam-engine/internal/api"
	"github.com/fluentprep/exam-engine/internal/config"
	"github.com/fluentprep/exam-engine/internal/engine"
	"github.com/fluentprep/exam-engine/internal/logger"
	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	examType := flag.String("type", "full_mock", "exam type: full_mock, listening, reading, writing, speaking")
	sessionID := flag.String("session", "", "attach to an existing session instead of creating one")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	client := api.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout, log)

	// ─── Authenticate ──────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	if cfg.APIToken == "" {
		fmt.Print("Candidate ID: ")
		candidateID, _ := reader.ReadString('\n')
		candidateID = strings.TrimSpace(candidateID)

		fmt.Print("Access code: ")
		byteCode, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Println("Error reading access code")
			os.Exit(1)
		}

		if err := client.Login(ctx, candidateID, string(byteCode)); err != nil {
			log.Fatal().Err(err).Msg("Login failed")
		}
	}

	// ─── Create or Attach Session ──────────────────────────────────────
	var sid uuid.UUID
	if *sessionID != "" {
		parsed, err := uuid.Parse(*sessionID)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid session ID")
		}
		sid = parsed
	} else {
		session, err := client.CreateSession(ctx, model.ExamType(*examType))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create session")
		}
		sid = session.ID
		fmt.Printf("Session %s created (%s, budget %s)\n", sid, session.ExamType, session.ExamType.Budget())
	}

	// ─── Run the Session ───────────────────────────────────────────────
	if err := run(ctx, cfg, client, sid, reader, log); err != nil {
		log.Fatal().Err(err).Msg("Session failed")
	}
}

func run(ctx context.Context, cfg *config.Config, client *api.Client, sid uuid.UUID, reader *bufio.Reader, log zerolog.Logger) error {
	sub := engine.NewSubmitCoordinator(client, cfg.CompleteAttempts, cfg.CompleteBackoff, log)
	ctrl := engine.NewController(client, sub, log)
	defer ctrl.Close()

	// terminal is signalled when the session reaches completed, from whichever
	// goroutine drove the submission.
	terminal := make(chan engine.State, 4)
	ctrl.OnState = func(s engine.State) {
		switch s {
		case engine.StateSubmitting:
			fmt.Println("\nTime is being called — submitting your answers...")
		case engine.StateCompleted:
			terminal <- s
		}
	}
	ctrl.OnTick = func(remaining int) {
		// Announce at whole minutes and the final countdown.
		if remaining <= 10 || remaining%60 == 0 {
			fmt.Printf("\r[%s remaining] ", formatClock(remaining))
		}
	}

	if err := ctrl.Load(ctx, sid); err != nil {
		if errors.Is(err, engine.ErrSessionUnavailable) {
			fmt.Println("This session is not available.")
		}
		return err
	}

	if ctrl.State() == engine.StateCompleted {
		// Reload with no time left: submission already ran.
		printResult(ctrl)
		return nil
	}

	fmt.Printf("Loaded %d questions, %s on the clock. Type 'help' for commands.\n\n",
		len(ctrl.Questions()), formatClock(ctrl.Remaining()))
	printQuestion(ctrl)

	// The prompt loop runs in its own goroutine so expiry can end the
	// session while the user is mid-read.
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			lines <- strings.TrimSpace(line)
		}
	}()

	awaitConfirm := false
	for {
		select {
		case s := <-terminal:
			if s == engine.StateCompleted {
				printResult(ctrl)
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				// stdin closed: silent abandonment, no cancellation call.
				return nil
			}
			if awaitConfirm {
				awaitConfirm = false
				if strings.ToLower(line) != "y" {
					fmt.Println("Not submitted.")
					continue
				}
				if err := ctrl.Submit(ctx); err != nil {
					// The engine stays in submitting; a reload is the
					// recovery path.
					fmt.Printf("Submission failed: %v\nRe-run with -session %s to try again.\n",
						err, ctrl.Session().ID)
					return err
				}
				if ctrl.State() == engine.StateCompleted {
					printResult(ctrl)
					return nil
				}
				// Submit was a no-op behind the barrier: an expiry-triggered
				// run either failed earlier or is still in flight.
				if serr := ctrl.SubmitErr(); serr != nil {
					fmt.Printf("Submission failed: %v\nRe-run with -session %s to try again.\n",
						serr, ctrl.Session().ID)
					return serr
				}
			}
			action, err := dispatch(ctrl, line)
			if err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
			if action == actionConfirmSubmit {
				awaitConfirm = true
			}
		}
	}
}

type promptAction int

const (
	actionNone promptAction = iota
	actionConfirmSubmit
)

// dispatch handles one prompt command.
func dispatch(ctrl *engine.Controller, line string) (promptAction, error) {
	cmd, arg, _ := strings.Cut(line, " ")

	switch cmd {
	case "":
	case "help":
		fmt.Println("  a <answer>   answer the current question")
		fmt.Println("  n / p        next / previous question")
		fmt.Println("  g <num>      jump to question")
		fmt.Println("  list         question grid with answered markers")
		fmt.Println("  time         remaining time")
		fmt.Println("  submit       finish and submit the session")
		fmt.Println("  quit         leave without submitting")
	case "a":
		if arg == "" {
			fmt.Println("Usage: a <answer>")
			break
		}
		q, _, err := ctrl.Current()
		if err != nil {
			return actionNone, err
		}
		if err := ctrl.SetAnswer(q.ID, arg); err != nil {
			fmt.Printf("Cannot answer: %v\n", err)
			break
		}
		answered, total := ctrl.Progress()
		fmt.Printf("Saved. %d/%d answered.\n", answered, total)
	case "n":
		if err := ctrl.Next(); err != nil {
			fmt.Printf("Cannot navigate: %v\n", err)
			break
		}
		printQuestion(ctrl)
	case "p":
		if err := ctrl.Prev(); err != nil {
			fmt.Printf("Cannot navigate: %v\n", err)
			break
		}
		printQuestion(ctrl)
	case "g":
		num, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Println("Usage: g <question number>")
			break
		}
		if err := ctrl.JumpTo(num - 1); err != nil {
			fmt.Printf("Cannot navigate: %v\n", err)
			break
		}
		printQuestion(ctrl)
	case "list":
		printGrid(ctrl)
	case "time":
		fmt.Printf("%s remaining\n", formatClock(ctrl.Remaining()))
	case "submit":
		answered, total := ctrl.Progress()
		fmt.Printf("Submit with %d/%d answered? [y/N] ", answered, total)
		return actionConfirmSubmit, nil
	case "quit":
		fmt.Println("Leaving without submitting. The session stays open server-side.")
		return actionNone, errQuit
	default:
		fmt.Println("Unknown command. Type 'help'.")
	}
	return actionNone, nil
}

var errQuit = errors.New("quit")

func printQuestion(ctrl *engine.Controller) {
	q, idx, err := ctrl.Current()
	if err != nil {
		return
	}

	marker := " "
	if ctrl.Answered(q.ID) {
		marker = "*"
	}
	fmt.Printf("\n[%d/%d]%s (%s, %d pt) %s\n", idx+1, len(ctrl.Questions()), marker, q.Module, q.Points, q.Prompt)
	for i, choice := range q.Choices {
		fmt.Printf("   %c) %s\n", 'A'+i, choice)
	}
	if v, ok := ctrl.Answer(q.ID); ok {
		fmt.Printf("   your answer: %s\n", v)
	}
}

func printGrid(ctrl *engine.Controller) {
	for i, q := range ctrl.Questions() {
		marker := "."
		if ctrl.Answered(q.ID) {
			marker = "*"
		}
		fmt.Printf("%3d%s", i+1, marker)
		if (i+1)%10 == 0 {
			fmt.Println()
		}
	}
	fmt.Println()
}

func printResult(ctrl *engine.Controller) {
	fmt.Println("\nSession submitted.")
	if report := ctrl.Report(); report != nil {
		fmt.Printf("Answers persisted: %d", report.Persisted)
		if report.Failed > 0 {
			fmt.Printf(" (%d failed, best effort)", report.Failed)
		}
		fmt.Println()
	}
	if s := ctrl.Session(); s != nil && s.FinishedAt != nil {
		fmt.Printf("Finished at %s. Your results will appear on the dashboard.\n",
			s.FinishedAt.Format(time.RFC3339))
	}
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
