package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorPurple    = lipgloss.Color("#8524a6")
	colorRed       = lipgloss.Color("#FF5555")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Bold(true)

	tutorLabelStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			Italic(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	quickOptionStyle = lipgloss.NewStyle().
				Foreground(colorLightGray).
				PaddingLeft(2)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Underline(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true)
)
