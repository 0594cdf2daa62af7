package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"codeberg.org/tutoria/server/internal/config"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/pagecontext"
	"codeberg.org/tutoria/server/internal/stream"
	"codeberg.org/tutoria/server/internal/tui"
	"codeberg.org/tutoria/server/internal/widget"
)

func main() {
	cfg, err := config.ParseTUIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tutoria: %v\n", err)
		os.Exit(2)
	}

	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "tutoria: stdout is not a terminal")
		os.Exit(1)
	}

	// the alt screen owns stdout, so logs go to a file
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tutoria: failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close() //nolint:errcheck

	logger.SetOutput(logFile)

	quickOptions, err := widget.ParseQuickOptions(cfg.QuickOptions)
	if err != nil {
		logger.Warn("ignoring invalid quick options", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opener stream.Opener = stream.NewHTTPOpener(nil)
	if cfg.StreamMode == "ws" {
		opener = tui.NewWSOpener(cfg.HostEndpoint, cfg.Token, cfg.CourseID)
	}

	model := tui.NewModel(ctx, tui.Options{
		Widget: widget.Options{
			CourseID: cfg.CourseID,
			CMID:     cfg.CMID,
			Page: pagecontext.Page{
				PageType: cfg.PageType,
				URL:      cfg.PageURL,
				CourseID: cfg.CourseID,
			},
			Role:    pagecontext.ParseRole(cfg.Role),
			Welcome: cfg.Welcome,
			Placeholders: widget.Placeholders{
				FirstName:   cfg.FirstName,
				LastName:    cfg.LastName,
				Email:       cfg.Email,
				SiteName:    cfg.SiteName,
				CourseName:  cfg.CourseName,
				TeacherName: cfg.TeacherName,
			},
			QuickOptions: quickOptions,
		},
		Transport: tui.NewRESTClient(cfg.HostEndpoint, cfg.Token, cfg.Timeout),
		Opener:    opener,
		TutorName: cfg.TeacherName,
	})

	logger.Info("starting tutoria terminal client",
		"host", cfg.HostEndpoint,
		"course_id", cfg.CourseID,
		"stream", cfg.StreamMode,
	)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running tutoria: %v\n", err)
		os.Exit(1)
	}
}
