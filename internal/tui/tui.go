package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/history"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/stream"
	"codeberg.org/tutoria/server/internal/widget"
)

const (
	defaultTutorName     = "Tutor-IA"
	defaultMarkdownStyle = "dark"

	// lines from the top that trigger the next history page
	nearTopLines = 2

	inputHeight = 3
	minViewport = 3
)

// builds the drawer and the widget it drives; ctx bounds every request and
// stream the drawer starts
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.TutorName == "" {
		opts.TutorName = defaultTutorName
	}

	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = defaultMarkdownStyle
	}

	ta := textarea.New()
	ta.Placeholder = "Ask the tutor..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "> "
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = tutorLabelStyle

	m := &Model{
		ctx:          ctx,
		opts:         opts,
		inputEnabled: true,
		viewport:     viewport.New(80, minViewport),
		input:        ta,
		spinner:      sp,
	}

	m.widget = widget.New(opts.Widget, opts.Transport, opts.Opener, m)
	m.widget.Pager().WithThreshold(nearTopLines)

	return m
}

func (m *Model) Widget() *widget.Widget {
	return m.widget
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.renderer = nil
		m.layout()
		m.refresh(true)

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

		if !handled && m.open && m.inputEnabled {
			var inputCmd tea.Cmd
			m.input, inputCmd = m.input.Update(msg)
			cmds = append(cmds, inputCmd)
		}

	case tea.MouseMsg:
		if m.open {
			cmds = append(cmds, m.scroll(msg))
		}

	case replyMsg:
		if m.widget.AttachStream(widget.Reply(msg)) {
			cmds = append(cmds, waitForEvent(msg.Conn))
		}

	case streamMsg:
		if !msg.ok {
			// closed without a completing event; dropped once the reply finished
			m.widget.HandleEvent(msg.conn, stream.Event{Type: stream.EventError, Err: stream.ErrStreamClosed})
			break
		}

		m.widget.HandleEvent(msg.conn, msg.ev)
		cmds = append(cmds, waitForEvent(msg.conn))

	case historyMsg:
		m.widget.FinishHistory(msg.load, msg.page, msg.err)

	case deleteMsg:
		m.widget.FinishDelete(msg.deleted)

	case spinner.TickMsg:
		if !m.typing {
			m.ticking = false
			break
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh(true)
		cmds = append(cmds, cmd)
	}

	if m.typing && !m.ticking {
		m.ticking = true
		cmds = append(cmds, m.spinner.Tick)
	}

	m.layout()

	return m, tea.Batch(cmds...)
}

// handles drawer keys; handled is false when the key belongs to the input
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		m.widget.Close()
		return tea.Quit, true

	case "ctrl+t":
		return m.toggle(), true
	}

	if !m.open {
		if key == "enter" {
			return m.toggle(), true
		}

		return nil, true
	}

	switch key {
	case "esc":
		m.widget.Close()
		return nil, true

	case "enter":
		return m.send(), true

	case "ctrl+n":
		return m.deleteSession(), true

	case "pgup", "pgdown":
		return m.scroll(msg), true
	}

	if len(msg.Runes) == 1 && msg.Alt && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
		m.widget.SelectQuickOption(int(msg.Runes[0] - '1'))
		return nil, true
	}

	return nil, false
}

func (m *Model) toggle() tea.Cmd {
	if m.widget.Toggle() {
		return m.loadHistory()
	}

	return nil
}

func (m *Model) send() tea.Cmd {
	if !m.inputEnabled {
		return nil
	}

	pending, err := m.widget.BeginSend(m.input.Value())
	if err != nil {
		return nil
	}

	m.banner = nil

	w, ctx := m.widget, m.ctx

	return func() tea.Msg {
		return replyMsg(w.RequestMessage(ctx, pending))
	}
}

func waitForEvent(conn stream.Conn) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		return streamMsg{conn: conn, ev: ev, ok: ok}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	load, ok := m.widget.BeginHistory()
	if !ok {
		return nil
	}

	w, ctx := m.widget, m.ctx

	return func() tea.Msg {
		page, err := w.FetchHistory(ctx, load)
		return historyMsg{load: load, page: page, err: err}
	}
}

func (m *Model) deleteSession() tea.Cmd {
	if m.widget.Streaming() {
		return nil
	}

	req, ok := m.widget.DeleteRequest()
	if !ok {
		return nil
	}

	w, ctx := m.widget, m.ctx

	return func() tea.Msg {
		return deleteMsg{deleted: w.DeleteSession(ctx, req)}
	}
}

// moves the viewport and pages in older history near the top
func (m *Model) scroll(msg tea.Msg) tea.Cmd {
	m.viewport, _ = m.viewport.Update(msg)

	if m.widget.Scrolled(m.viewport.YOffset) {
		return m.loadHistory()
	}

	return nil
}

// sizes the viewport to what the chrome around it leaves
func (m *Model) layout() {
	if !m.ready {
		return
	}

	width := max(m.width-2, 20)
	m.input.SetWidth(width - 2)

	chrome := 2 + inputHeight + 2
	if m.showQuick {
		chrome += len(m.quickOptions)
	}

	if m.banner != nil {
		chrome += lipgloss.Height(m.bannerView())
	}

	m.viewport.Width = width
	m.viewport.Height = max(m.height-chrome, minViewport)
}

// re-renders the message list; stick keeps a reader at the bottom there
func (m *Model) refresh(stick bool) {
	atBottom := m.viewport.AtBottom()

	m.viewport.SetContent(m.content())

	if stick && atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) content() string {
	var b strings.Builder

	if m.welcome != "" {
		b.WriteString(welcomeStyle.Render(m.welcome))
		b.WriteString("\n\n")
	}

	for i := range m.entries {
		b.WriteString(m.renderEntry(&m.entries[i]))
		b.WriteString("\n\n")
	}

	if m.typing {
		b.WriteString(m.spinner.View())
		b.WriteString(infoStyle.Render(" " + m.opts.TutorName + " is typing..."))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderEntry(e *entry) string {
	label := userLabelStyle.Render("You")
	if e.role == history.RoleAssistant {
		label = tutorLabelStyle.Render(m.opts.TutorName)
	}

	if !e.at.IsZero() {
		label += " " + timestampStyle.Render(e.at.Local().Format("15:04"))
	}

	var body string

	switch {
	case e.notice:
		body = noticeStyle.Render(e.content)
	case e.role == history.RoleAssistant && !e.streaming:
		body = m.markdown(e)
	default:
		body = lipgloss.NewStyle().Width(m.viewport.Width).Render(e.content)
	}

	return label + "\n" + body
}

// renders finished assistant text as markdown, cached per width
func (m *Model) markdown(e *entry) string {
	width := m.viewport.Width
	if e.rendered != "" && e.renderedWidth == width {
		return e.rendered
	}

	if m.renderer == nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.opts.MarkdownStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logger.Warn("failed to create markdown renderer", "error", err)
			return e.content
		}

		m.renderer = renderer
	}

	out, err := m.renderer.Render(e.content)
	if err != nil {
		return e.content
	}

	e.rendered = strings.Trim(out, "\n")
	e.renderedWidth = width

	return e.rendered
}

func (m *Model) bannerView() string {
	if m.banner == nil {
		return ""
	}

	text := errorStyle.Render(m.banner.Message())
	if m.banner.ConfigURL != "" {
		text += "\n" + infoStyle.Render("Configure: ") + linkStyle.Render(m.banner.ConfigURL)
	}

	return text
}

func (m *Model) View() string {
	if !m.open {
		return infoStyle.Render(fmt.Sprintf("Press ctrl+t to chat with %s, ctrl+c to quit.", m.opts.TutorName)) + "\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.opts.TutorName))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.showQuick {
		for i, option := range m.quickOptions {
			b.WriteString(quickOptionStyle.Render(fmt.Sprintf("alt+%d  %s", i+1, option.Label)))
			b.WriteString("\n")
		}
	}

	if m.banner != nil {
		b.WriteString(m.bannerView())
		b.WriteString("\n")
	}

	if m.inputEnabled {
		b.WriteString(borderStyle.Render(m.input.View()))
	} else {
		b.WriteString(borderStyle.Render(infoStyle.Render(m.disabledText())))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[Enter: Send] [Alt+Enter: Newline] [PgUp: Older] [Ctrl+N: New chat] [Esc: Close] [Ctrl+C: Quit]"))

	return b.String()
}

func (m *Model) disabledText() string {
	if m.widget.Locked() {
		return "Input is disabled until more AI credits are available."
	}

	return "Waiting for the reply..."
}

func (m *Model) appendEntry(msg history.Message, stick bool) {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	e := entry{id: id, role: msg.Role, content: stream.Truncate(msg.Content), at: msg.Timestamp}

	if stick {
		m.entries = append(m.entries, e)
	} else {
		m.entries = append([]entry{e}, m.entries...)
	}

	m.refresh(stick)
}

// the assistant message being streamed, nil when none is
func (m *Model) streaming() *entry {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].streaming {
			return &m.entries[i]
		}
	}

	return nil
}

func (m *Model) SetOpen(open bool) {
	m.open = open
	if open && m.inputEnabled {
		m.input.Focus()
	}
}

func (m *Model) ShowWelcome(text string) {
	m.welcome = text
	m.refresh(true)
}

func (m *Model) ShowQuickOptions(options []widget.QuickOption) {
	m.quickOptions = options
	m.showQuick = true
}

func (m *Model) HideQuickOptions() {
	m.showQuick = false
}

func (m *Model) AddUserMessage(msg history.Message) {
	m.appendEntry(msg, true)
}

func (m *Model) AddNotice(text string) {
	m.entries = append(m.entries, entry{
		id:      uuid.NewString(),
		role:    history.RoleAssistant,
		content: text,
		notice:  true,
	})
	m.refresh(true)
}

func (m *Model) ShowTyping() {
	m.typing = true
	m.refresh(true)
}

func (m *Model) HideTyping() {
	m.typing = false
	m.refresh(true)
}

func (m *Model) SetInput(text string) {
	m.input.SetValue(text)
}

func (m *Model) ClearInput() {
	m.input.Reset()
}

func (m *Model) ClearMessages() {
	m.entries = nil
	m.welcome = ""
	m.banner = nil
	m.typing = false
	m.viewport.SetYOffset(0)
	m.refresh(true)
}

func (m *Model) StartAssistant() {
	m.typing = false
	m.entries = append(m.entries, entry{
		id:        uuid.NewString(),
		role:      history.RoleAssistant,
		streaming: true,
	})
	m.refresh(true)
}

func (m *Model) UpdateAssistant(content string) {
	if e := m.streaming(); e != nil {
		e.content = content
		m.refresh(true)
	}
}

func (m *Model) FinishAssistant(at time.Time) {
	if e := m.streaming(); e != nil {
		e.streaming = false
		e.at = at
		m.refresh(true)
	}
}

func (m *Model) ShowError(err *chaterr.Error) {
	m.banner = err
	m.layout()
	m.refresh(true)
}

func (m *Model) SetInputEnabled(enabled bool) {
	m.inputEnabled = enabled
	if enabled {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) ContentHeight() int {
	return m.viewport.TotalLineCount()
}

func (m *Model) ScrollTop() int {
	return m.viewport.YOffset
}

func (m *Model) SetScrollTop(top int) {
	m.viewport.SetYOffset(top)
}

func (m *Model) Append(msg history.Message) {
	m.appendEntry(msg, true)
}

func (m *Model) InsertBeforeOldest(msg history.Message) {
	m.appendEntry(msg, false)
}
