package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/internal/engine"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do?"
	GameOverText    = "The adventure is over. Press Enter to exit."
)

// entry is one line of the chat log as shown on screen. Control replies and
// errors are shown but never enter the session's conversation log.
type entry struct {
	speaker string
	text    string
	isError bool
}

// ConsoleUI is the BubbleTea model that runs the full-screen console.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	ctx  context.Context
	o    *engine.Orchestrator
	open bool // the opening turn has not been played yet

	entries      []entry
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool
	over         bool
	status       string

	showQuitModal bool
	progressTick  int
}

type turnResultMsg struct {
	result *engine.TurnResult
	err    error
}

type savedMsg struct {
	name string
	err  error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func runConsole(ctx context.Context, o *engine.Orchestrator, fresh bool) error {
	p := tea.NewProgram(NewConsoleUI(ctx, o, fresh),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

func NewConsoleUI(ctx context.Context, o *engine.Orchestrator, fresh bool) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	m := ConsoleUI{
		ctx:          ctx,
		o:            o,
		open:         fresh,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: viewport.New(20, 20),
	}
	m.entries = historyEntries(o.Session())
	return m
}

func historyEntries(s *engine.Session) []entry {
	var out []entry
	for _, p := range s.History.Pairs() {
		out = append(out, entry{speaker: "You", text: p.Input}, entry{speaker: AgentName, text: p.Output})
	}
	return out
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.open {
		return tea.Batch(textarea.Blink, m.beginTurn(), progressTick())
	}
	return textarea.Blink
}

func (m ConsoleUI) beginTurn() tea.Cmd {
	return func() tea.Msg {
		result, err := m.o.Begin(m.ctx)
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) playTurn(command string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.o.Turn(m.ctx, command)
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) save() tea.Cmd {
	return func() tea.Msg {
		name, err := m.o.Save(m.ctx)
		return savedMsg{name, err}
	}
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.over {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			m.copyLastNarration()
			m.writeChatContent()
			return m, nil
		case tea.KeyEnter:
			if m.over {
				return m, tea.Quit
			}
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.loading = true
			m.progressTick = 0
			m.status = ""
			m.entries = append(m.entries, entry{speaker: "You", text: input})
			m.writeChatContent()
			return m, tea.Batch(m.playTurn(input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		m.open = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{text: "Error: " + msg.err.Error() + " Nothing changed; try again.", isError: true})
		} else {
			m.applyResult(msg.result)
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = "Save failed: " + msg.err.Error()
			m.showQuitModal = true
			return m, nil
		}
		return m, tea.Quit

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) applyResult(r *engine.TurnResult) {
	if r.LoadedFrom != "" {
		// The whole session was replaced; show its log from the start.
		m.entries = historyEntries(m.o.Session())
	}
	if r.Narration != "" {
		m.entries = append(m.entries, entry{speaker: AgentName, text: r.Narration})
	}
	if r.Closing != "" {
		m.entries = append(m.entries, entry{speaker: AgentName, text: r.Closing})
	}
	if r.Terminated {
		m.over = true
		m.textarea.Placeholder = GameOverText
		m.textarea.Blur()
	}
}

func (m *ConsoleUI) copyLastNarration() {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.speaker != AgentName {
			continue
		}
		if err := clipboard.WriteAll(e.text); err != nil {
			m.status = "Copy failed: " + err.Error()
			return
		}
		m.status = "Copied the last narration."
		return
	}
	m.status = "Nothing to copy yet."
}

// writeChatContent rebuilds the chat log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	content.WriteString("Describe what you do and press Enter. Ask to save, load or quit at any time.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	for _, e := range m.entries {
		switch {
		case e.isError:
			content.WriteString(errorStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		case e.speaker == "You":
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-6) + "\n\n")
		default:
			content.WriteString(formatNarratorResponse(e.text, chatWidth) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(loadingStyle.Render(m.o.Session().Phase().String()) + "\n")
		content.WriteString(m.renderProgressBar())
	}
	if m.status != "" {
		content.WriteString("\n" + promptStyle.Render(m.status))
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

// writeMetadata shows the character sheet and scene. It is only called while
// no turn is running.
func (m *ConsoleUI) writeMetadata() {
	s := m.o.Session()
	gs, err := s.Store.Snapshot()
	if err != nil {
		m.metaViewport.SetContent(errorStyle.Render(err.Error()))
		return
	}
	c := s.Character

	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")
	content.WriteString(fmt.Sprintf("%s\nLevel %d %s %s\n", c.Name, c.Level, c.Race, c.Class))
	content.WriteString(fmt.Sprintf("HP %d/%d  AC %d\nGold %d\n\n", c.HP, c.MaxHP, c.AC, c.Gold))
	if len(c.Inventory) > 0 {
		content.WriteString("Inventory:\n")
		for _, item := range c.Inventory {
			content.WriteString("• " + item + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(titleStyle.Render("SCENE") + "\n\n")
	content.WriteString(gs.Location + "\n")
	content.WriteString(fmt.Sprintf("%s, %s\n", gs.Date, gs.TimeOfDay))
	content.WriteString("Danger: " + gs.Danger.Title() + "\n\n")
	if len(gs.Monsters) > 0 {
		content.WriteString("Monsters:\n")
		for _, mo := range gs.Monsters {
			content.WriteString(fmt.Sprintf("• %s (%s)\n", mo.Description, mo.Status))
		}
		content.WriteString("\n")
	}

	content.WriteString(fmt.Sprintf("Turns: %d\n", s.History.Len()))
	if s.Debug != nil && s.Debug.Level() <= slog.LevelDebug {
		content.WriteString(loadingStyle.Render("Debug logging on") + "\n")
	}
	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy narration\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• /look, /inventory\n")
	content.WriteString("• /help: Help\n")

	m.metaViewport.SetContent(wordwrap.String(content.String(), max(m.metaViewport.Width, 10)))
}

func formatNarratorResponse(response string, width int) string {
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(AgentName+": ")
	}

	lines := strings.Split(wordwrap.String(response, wrapWidth), "\n")
	formattedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}
		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+trimmed[idx+1:])
				continue
			}
		}
		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}
	return result
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	if msg, ok := shortcut(m.o.Session(), input); ok {
		m.entries = append(m.entries, entry{speaker: AgentName, text: msg})
		m.writeChatContent()
		return m, nil
	}
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.entries = append(m.entries, entry{speaker: "Help", text: `Type what your character does and press Enter.
Ask in your own words to save the game, load a saved game, quit, or turn debug mode on or off.
/look describes the scene and /inventory lists what you carry.
Ctrl+Y copies the last narration. Ctrl+C asks before quitting.`})
	default:
		m.status = "Unknown command " + input + ". Try /help."
	}
	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case savedMsg:
		if msg.err != nil {
			m.status = "Save failed: " + msg.err.Error()
			return m, nil
		}
		return m, tea.Quit

	case turnResultMsg:
		// A turn finished behind the modal.
		m.showQuitModal = false
		next, cmd := m.Update(msg)
		cu := next.(ConsoleUI)
		cu.showQuitModal = true
		return cu, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "s", "S":
				if m.loading {
					m.status = "Wait for the current turn to finish before saving."
					return m, nil
				}
				return m, m.save()
			case "n", "N", "esc":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved progress since your last save will be lost.")
	content.WriteString("\n\n")
	if m.status != "" {
		content.WriteString(errorStyle.Render(m.status) + "\n\n")
	}
	content.WriteString(promptStyle.Render("S to save and quit, Y to quit, N to keep playing"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	usable = min(max(usable, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
