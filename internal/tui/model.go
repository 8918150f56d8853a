package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aeroassist/internal/domain"
)

// AssistantPort is the TUI-facing subset of the assistant service.
type AssistantPort interface {
	Query(ctx context.Context, username string, history []domain.InferenceInteraction) (domain.InferenceResult, error)
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	assistant AssistantPort
	input     textinput.Model
	viewport  viewport.Model
	history   []domain.InferenceInteraction
	status    string
	thinking  bool
	ready     bool
}

type answerMsg struct {
	result domain.InferenceResult
}

type answerErrMsg struct {
	err error
}

// New creates a new chat model instance.
func New(assistant AssistantPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your aircraft manuals and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{assistant: assistant, input: ti, viewport: vp, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ch)
		m.viewport.SetContent(m.renderConversation())
		return m, nil
	case answerMsg:
		m.thinking = false
		m.history = append(m.history, domain.InferenceInteraction{
			Originator: domain.OriginatorAgent,
			Text:       msg.result.ToMarkdown(),
		})
		m.status = "Ready."
		m.viewport.SetContent(m.renderConversation())
		m.viewport.GotoBottom()
		return m, nil
	case answerErrMsg:
		m.thinking = false
		m.status = "Error: " + truncateEllipsis(msg.err.Error(), 120)
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.thinking {
				m.history = append(m.history, domain.InferenceInteraction{
					Originator: domain.OriginatorUser,
					Text:       q,
				})
				m.input.SetValue("")
				m.thinking = true
				m.status = "Thinking..."
				m.viewport.SetContent(m.renderConversation())
				m.viewport.GotoBottom()
				history := append([]domain.InferenceInteraction(nil), m.history...)
				return m, func() tea.Msg {
					result, err := m.assistant.Query(context.Background(), "", history)
					if err != nil {
						return answerErrMsg{err: err}
					}
					return answerMsg{result: result}
				}
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and conversation so far.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Aero Assist")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m Model) renderConversation() string {
	if len(m.history) == 0 {
		return "No conversation yet."
	}
	turns := make([]string, 0, len(m.history))
	for _, interaction := range m.history {
		label := engineerStyle.Render("Engineer")
		if interaction.Originator == domain.OriginatorAgent {
			label = agentStyle.Render("Eugine")
		}
		turns = append(turns, label+"\n"+interaction.Text)
	}
	return strings.Join(turns, "\n\n")
}

var (
	chatBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	engineerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// truncateEllipsis shortens text to maxLength runes, never splitting a
// multi-byte character.
func truncateEllipsis(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
