package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/odvcencio/scribe/pkg/storage"
)

func runSessionsCommand(args []string) error {
	fs := flag.NewFlagSet("sessions", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", 20, "number of sessions to list, 0 for all")
	del := fs.String("delete", "", "remove a session from the catalog")
	if err := fs.Parse(args); err != nil {
		return withExitCode(err, exitUsage)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Storage.Enabled {
		return usageError("the session catalog is disabled (storage.enabled: false)")
	}
	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if *del != "" {
		if err := store.DeleteSession(*del); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %s\n", *del)
		return nil
	}

	sessions, err := store.ListSessions(*limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(stdout, "no sessions recorded")
		return nil
	}
	fmt.Fprint(stdout, formatSessions(sessions))
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func formatSessions(sessions []storage.Session) string {
	var out string
	out += headerStyle.Render(fmt.Sprintf("%-26s  %-6s  %-9s  %-19s  %8s  %10s  %s", "ID", "MODE", "STATUS", "STARTED", "EVENTS", "BYTES", "LOG")) + "\n"
	for _, s := range sessions {
		status := fmt.Sprintf("%-9s", s.Status)
		if s.Status == storage.SessionStatusFailed {
			status = failedStyle.Render(status)
		}
		out += fmt.Sprintf("%-26s  %-6s  %s  %-19s  %8s  %10s  %s\n",
			s.ID, s.Mode, status,
			s.StartedAt.Local().Format(time.DateTime),
			strconv.FormatInt(s.Events, 10),
			strconv.FormatInt(s.Bytes, 10),
			s.LogPath)
		if s.Error != "" {
			out += "    " + s.Error + "\n"
		}
	}
	return out
}
