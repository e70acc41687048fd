package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"talky/internal/app"
	"talky/internal/config"
	"talky/internal/logging"
	"talky/internal/store"
	"talky/internal/types"
)

const usageText = `talky is a terminal shell for session notes and enhanced transcripts.

Usage:
  talky [command] [flags]

Commands:
  ui        run the terminal UI (default)
  sessions  list recorded sessions
  import    create a session from a transcript file or stdin
  env       print the resolved model environment
  help      show help

Flags:
  -h, --help   show help

Examples:
  talky
  talky sessions
  talky import --title standup notes.txt
  talky env --session ses_1a2b
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		exitOnErr("ui", runUI(nil))
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	case "ui":
		exitOnErr("ui", runUI(args[1:]))
	case "sessions":
		exitOnErr("sessions", runSessions(args[1:]))
	case "import":
		exitOnErr("import", runImport(args[1:]))
	case "env":
		exitOnErr("env", runEnv(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := config.EnsureDataDir(); err != nil {
		return err
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	keysPath, err := settings.ResolveKeybindingsPath()
	if err != nil {
		return err
	}
	keys, err := app.LoadKeybindings(keysPath)
	if err != nil {
		return err
	}
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	logger, closeLog := newUILogger(settings)
	defer closeLog()

	return app.Run(repo, settings, keys, logger)
}

// newUILogger writes to the UI log file so log lines never corrupt the
// terminal the UI is drawing on. Failures fall back to a no-op logger.
func newUILogger(settings config.Settings) (logging.Logger, func()) {
	logPath, err := config.UILogPath()
	if err != nil {
		return logging.Nop(), func() {}
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.Nop(), func() {}
	}
	logger := logging.New(file, logging.ParseLevel(settings.LogLevel()))
	return logger, func() { _ = file.Close() }
}

func runSessions(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sessions, err := repo.Sessions().List(ctx)
	if err != nil {
		return err
	}
	printSessions(sessions)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	title := fs.String("title", "", "session title")
	envID := fs.String("env", "", "environment id override for this session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	transcript, err := readTranscript(fs.Args())
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return fmt.Errorf("transcript is empty")
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := repo.Sessions().Upsert(ctx, &types.Session{
		Title:         strings.TrimSpace(*title),
		Status:        types.SessionStatusReady,
		EnvironmentID: strings.TrimSpace(*envID),
		Transcript:    transcript,
	})
	if err != nil {
		return err
	}
	fmt.Println(session.ID)
	return nil
}

func readTranscript(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("import takes at most one file argument")
	}
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// runEnv prints the environment the UI would use for a session: the
// session's own override when set, otherwise the configured default,
// otherwise the first configured environment.
func runEnv(args []string) error {
	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sessionID := fs.String("session", "", "resolve for this session id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	sessionEnvID := ""
	if *sessionID != "" {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		session, ok, err := repo.Sessions().Get(ctx, *sessionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("session %s not found", *sessionID)
		}
		sessionEnvID = session.EnvironmentID
	}

	env := settings.EffectiveEnvironment(sessionEnvID)
	if env.Environment == nil {
		fmt.Println("no environment configured")
		return nil
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(writer, "id\t%s\n", env.EnvironmentID)
	fmt.Fprintf(writer, "base_url\t%s\n", orNone(env.BaseURL))
	fmt.Fprintf(writer, "api_key\t%s\n", maskKey(env.APIKey))
	fmt.Fprintf(writer, "summarisation_model\t%s\n", orNone(env.SummarisationModel))
	fmt.Fprintf(writer, "chat_model\t%s\n", orNone(env.ChatModel))
	fmt.Fprintf(writer, "configured\t%t\n", env.IsConfigured)
	return writer.Flush()
}

func openRepository() (store.Repository, error) {
	if _, err := config.EnsureDataDir(); err != nil {
		return nil, err
	}
	path, err := config.StorePath()
	if err != nil {
		return nil, err
	}
	return store.NewBboltRepository(path)
}

func printSessions(sessions []*types.Session) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSTATUS\tENV\tCREATED\tTITLE")
	for _, session := range sessions {
		envID := session.EnvironmentID
		if envID == "" {
			envID = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			session.ID, session.Status, envID,
			session.CreatedAt.Local().Format("2006-01-02 15:04"), session.Title)
	}
	_ = writer.Flush()
}

func orNone(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func maskKey(key string) string {
	if key == "" {
		return "-"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func exitOnErr(label string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s error: %v\n", label, err)
	os.Exit(1)
}
