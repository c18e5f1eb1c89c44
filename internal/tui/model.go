package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sarthi/internal/domain"
	"sarthi/internal/localize"
)

// ChatPort is the TUI-facing subset of the chat API.
type ChatPort interface {
	Chat(ctx context.Context, query, lang string) (domain.LocalizedResponse, error)
	Greet(ctx context.Context, lang, theme string) (localize.Greeting, error)
}

const requestTimeout = 30 * time.Second

type greetMsg struct {
	greeting localize.Greeting
	err      error
}

type answerMsg struct {
	query string
	resp  domain.LocalizedResponse
	err   error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	chat      ChatPort
	lang      string
	input     textinput.Model
	viewport  viewport.Model
	answer    string
	replies   []domain.QuickReply
	status    string
	cursor    int
	ready     bool
	waiting   bool
	lastQuery string
}

// New creates a chat model. lang may be empty to let the server detect it.
func New(chat ChatPort, lang string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{chat: chat, lang: lang, input: ti, viewport: vp, status: "Connecting..."}
}

// Init starts the cursor blink and fetches the greeting.
func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.greet()) }

func (m Model) greet() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		g, err := m.chat.Greet(ctx, m.lang, "")
		return greetMsg{greeting: g, err: err}
	}
}

func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.chat.Chat(ctx, query, m.lang)
		return answerMsg{query: query, resp: resp, err: err}
	}
}

// Update handles key, window and response events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 + len(m.replies) // header, status, input, spacer, replies
		vh := msg.Height - reserved
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case greetMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.setResponse(msg.greeting.Answer, msg.greeting.QuickReplies)
		m.status = "Language: " + string(msg.greeting.SelectedLanguage)
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.lastQuery = msg.query
		m.setResponse(msg.resp.Answer, msg.resp.QuickReplies)
		m.status = fmt.Sprintf("Answer for %q", msg.query)
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.waiting {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" && len(m.replies) > 0 {
				q = m.replies[m.cursor].Payload
			}
			if q == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.status = "Asking..."
			return m, m.ask(q)
		case "down":
			if len(m.replies) > 0 {
				m.cursor = (m.cursor + 1) % len(m.replies)
				return m, nil
			}
		case "up":
			if len(m.replies) > 0 {
				m.cursor = (m.cursor - 1 + len(m.replies)) % len(m.replies)
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setResponse(answer string, replies []domain.QuickReply) {
	m.answer = answer
	m.replies = replies
	m.cursor = 0
	m.viewport.SetContent(m.renderAnswer())
	m.viewport.GotoTop()
}

// View renders the answer, quick replies, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Campus Sarthi")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + answer + "\n" + m.renderReplies() + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == "" {
		return "No answer yet."
	}
	return highlightBestSentence(m.answer, m.lastQuery)
}

func (m Model) renderReplies() string {
	var b strings.Builder
	for i, r := range m.replies {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ " + r.Text))
		} else {
			b.WriteString(replyStyle.Render("  " + r.Text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	replyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	unicodeWordRe  = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+`)
	sentenceRe     = regexp.MustCompile(`[^.!?।॥]+[.!?।॥]+`)
)

// highlightBestSentence emphasises the sentence sharing most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var sentences []string
	last := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	if len(sentences) < 2 {
		return strings.TrimSpace(text)
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.TrimSpace(text)
	}
	bestIdx := 0
	bestScore := 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if bestScore > 0 && i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
