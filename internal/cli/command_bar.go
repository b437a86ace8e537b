package cli

import (
	"context"
	"strings"

	"github.com/alexanderramin/smeta/internal/cli/formatter"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// historyLimit is how many address bar entries are loaded at startup.
const historyLimit = 200

// addressCommands are the words the address bar accepts besides paths.
var addressCommands = []string{"back", "lang", "logout", "quit", "refresh"}

// commandBar is the persistent address bar at the bottom of the TUI.
// It accepts a route path or one of a few commands, with suggestions and
// history navigation.
type commandBar struct {
	input   textinput.Model
	state   *SharedState
	focused bool

	// history
	history    []string
	historyIdx int
}

func newCommandBar(state *SharedState) commandBar {
	ti := textinput.New()
	ti.Prompt = ""
	ti.ShowSuggestions = true
	ti.CharLimit = 500
	ti.KeyMap.NextSuggestion = key.NewBinding(key.WithKeys("ctrl+n"))
	ti.KeyMap.PrevSuggestion = key.NewBinding(key.WithKeys("ctrl+p"))

	var hist []string
	if repo := state.App.History; repo != nil {
		hist, _ = repo.Recent(context.Background(), historyLimit)
	}

	return commandBar{
		input:      ti,
		state:      state,
		history:    hist,
		historyIdx: len(hist),
	}
}

// Focus gives focus to the address bar.
func (c *commandBar) Focus() {
	c.focused = true
	c.input.Focus()
}

// Blur removes focus from the address bar.
func (c *commandBar) Blur() {
	c.focused = false
	c.input.Blur()
}

// Focused returns whether the address bar has focus.
func (c *commandBar) Focused() bool {
	return c.focused
}

// SetWidth updates the input width for terminal resizing.
func (c *commandBar) SetWidth(w int) {
	c.input.Width = w - len(c.promptPrefixPlain()) - 1
}

// Update handles key messages when the address bar is focused.
// Returns a tea.Cmd that may include navigation or output messages.
func (c *commandBar) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		input := strings.TrimSpace(c.input.Value())
		c.input.Reset()
		c.input.SetSuggestions(nil)
		c.Blur()
		if input == "" {
			return nil
		}
		c.addHistory(input)
		return c.executeCommand(input)

	case tea.KeyUp:
		c.historyUp()
		return nil

	case tea.KeyDown:
		c.historyDown()
		return nil

	case tea.KeyEsc:
		c.input.Reset()
		c.Blur()
		return nil

	default:
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		c.updateSuggestions()
		return cmd
	}
}

// UpdateNonKey handles non-key messages (e.g., cursor blink).
func (c *commandBar) UpdateNonKey(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

// View renders the address bar.
func (c *commandBar) View() string {
	if !c.focused {
		return c.promptPrefix() + formatter.Dim(c.state.App.T("address_hint"))
	}
	return c.promptPrefix() + c.input.View()
}

// promptPrefix returns the styled prompt string.
func (c *commandBar) promptPrefix() string {
	return formatter.StylePurple.Render("smeta") + " " + formatter.Dim("❯") + " "
}

// promptPrefixPlain returns the plain-text prompt for width calculations.
func (c *commandBar) promptPrefixPlain() string {
	return "smeta > "
}

// executeCommand runs one address bar entry. A leading slash opens a
// route; anything else is a command.
func (c *commandBar) executeCommand(input string) tea.Cmd {
	app := c.state.App
	if strings.HasPrefix(input, "/") {
		return navigate(input)
	}

	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "quit", "q", "exit":
		return func() tea.Msg { return quitMsg{} }
	case "back":
		return popView()
	case "refresh":
		return refreshCmd
	case "logout":
		return func() tea.Msg {
			if err := app.Auth.Logout(context.Background()); err != nil {
				return cmdOutputMsg{output: formatter.Failure(userMessage(app, err))}
			}
			return navigateMsg{path: "/login"}
		}
	case "lang":
		if len(parts) < 2 {
			return outputCmd(string(app.Lang()))
		}
		code := parts[1]
		return func() tea.Msg {
			lang, err := app.Auth.SetLang(context.Background(), code)
			if err != nil {
				return cmdOutputMsg{output: formatter.Failure(err.Error())}
			}
			return cmdOutputMsg{output: formatter.Success(app.T("lang_switched", i18n.Vars{"lang": string(lang)}))}
		}
	}
	return outputCmd(formatter.Failure(app.T("unknown_command", i18n.Vars{"cmd": parts[0]})))
}

// ── history ──────────────────────────────────────────────────────────────────

func (c *commandBar) addHistory(line string) {
	if line == "" {
		return
	}
	c.history = append(c.history, line)
	c.historyIdx = len(c.history)
	if repo := c.state.App.History; repo != nil {
		_ = repo.Append(context.Background(), line)
	}
}

func (c *commandBar) historyUp() {
	if c.historyIdx > 0 {
		c.historyIdx--
		c.input.SetValue(c.history[c.historyIdx])
		c.input.CursorEnd()
	}
}

func (c *commandBar) historyDown() {
	if c.historyIdx < len(c.history)-1 {
		c.historyIdx++
		c.input.SetValue(c.history[c.historyIdx])
		c.input.CursorEnd()
	} else {
		c.historyIdx = len(c.history)
		c.input.SetValue("")
	}
}

// ── suggestions ──────────────────────────────────────────────────────────────

func (c *commandBar) updateSuggestions() {
	text := c.input.Value()
	if text == "" {
		c.input.SetSuggestions(nil)
		return
	}
	if strings.HasPrefix(text, "/") {
		c.input.SetSuggestions(filterSuggestions(c.pathSuggestions(), text))
		return
	}
	parts := strings.Fields(text)
	if len(parts) == 1 && !strings.HasSuffix(text, " ") {
		c.input.SetSuggestions(filterSuggestions(addressCommands, parts[0]))
		return
	}
	if strings.EqualFold(parts[0], "lang") {
		c.input.SetSuggestions([]string{"lang ru", "lang kk"})
		return
	}
	c.input.SetSuggestions(nil)
}

// pathSuggestions offers the fixed routes plus recently visited paths.
func (c *commandBar) pathSuggestions() []string {
	out := []string{"/plans", "/login"}
	seen := map[string]bool{"/plans": true, "/login": true}
	for i := len(c.history) - 1; i >= 0; i-- {
		h := c.history[i]
		if strings.HasPrefix(h, "/") && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out
}

func filterSuggestions(candidates []string, prefix string) []string {
	lp := strings.ToLower(prefix)
	var out []string
	for _, s := range candidates {
		if strings.HasPrefix(strings.ToLower(s), lp) {
			out = append(out, s)
		}
	}
	return out
}
