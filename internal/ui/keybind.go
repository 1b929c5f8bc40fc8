package ui

import (
	"sort"
	"strings"

	"dermascan/internal/controller"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeybindRegistry maps keys to commands, optionally restricted to phases.
// Keys use tea.KeyMsg.String() notation except space, which is "SPC".
type KeybindRegistry struct {
	bindings     map[string][]binding
	descriptions map[string]string
	order        []string
}

type binding struct {
	cmd    tea.Cmd
	desc   string
	phases []controller.Phase // empty = every phase
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{
		bindings:     make(map[string][]binding),
		descriptions: make(map[string]string),
	}
}

// Bind registers a key for every phase.
func (r *KeybindRegistry) Bind(seq string, cmd tea.Cmd, desc string) {
	r.BindForPhases(seq, cmd, desc)
}

// BindForPhases registers a key that only fires in the listed phases.
// The same key may be bound several times with disjoint phases; the first
// matching binding wins.
func (r *KeybindRegistry) BindForPhases(seq string, cmd tea.Cmd, desc string, phases ...controller.Phase) {
	n := normalizeSeq(seq)
	if _, ok := r.bindings[n]; !ok {
		r.order = append(r.order, n)
	}
	r.bindings[n] = append(r.bindings[n], binding{cmd: cmd, desc: desc, phases: phases})
}

// Lookup returns the command bound to seq in phase, or nil.
func (r *KeybindRegistry) Lookup(seq string, phase controller.Phase) tea.Cmd {
	for _, b := range r.bindings[normalizeSeq(seq)] {
		if b.cmd != nil && b.appliesTo(phase) {
			return b.cmd
		}
	}
	return nil
}

// Hints returns key -> description for the bindings active in phase.
// Keys without a description are omitted.
func (r *KeybindRegistry) Hints(phase controller.Phase) map[string]string {
	out := make(map[string]string)
	for seq, bs := range r.bindings {
		for _, b := range bs {
			if b.cmd == nil || b.desc == "" || !b.appliesTo(phase) {
				continue
			}
			out[seq] = b.desc
			break
		}
	}
	return out
}

func (b binding) appliesTo(phase controller.Phase) bool {
	if len(b.phases) == 0 {
		return true
	}
	for _, p := range b.phases {
		if p == phase {
			return true
		}
	}
	return false
}

// normalizeSeq converts tea key strings to our canonical format.
// "space" -> "SPC", "ctrl+c" -> "ctrl+c", "j" -> "j".
func normalizeSeq(seq string) string {
	s := strings.TrimSpace(seq)
	if seq == " " || s == "space" {
		return "SPC"
	}
	return s
}

// KeyHandler dispatches key presses to the registry for the current phase.
type KeyHandler struct {
	Registry *KeybindRegistry
}

// NewKeyHandler creates a handler over reg.
func NewKeyHandler(reg *KeybindRegistry) *KeyHandler {
	return &KeyHandler{Registry: reg}
}

// Handle processes a KeyMsg. Returns (consumed, cmd).
func (h *KeyHandler) Handle(msg tea.KeyMsg, phase controller.Phase) (consumed bool, cmd tea.Cmd) {
	if c := h.Registry.Lookup(msg.String(), phase); c != nil {
		return true, c
	}
	return false, nil
}

// KeyMap implements help.KeyMap over the bindings active in one phase.
type KeyMap struct {
	registry *KeybindRegistry
	phase    controller.Phase
}

// NewKeyMap creates a KeyMap for the given registry and phase.
func NewKeyMap(registry *KeybindRegistry, phase controller.Phase) help.KeyMap {
	return &KeyMap{registry: registry, phase: phase}
}

// ShortHelp returns bindings in registration order.
func (km *KeyMap) ShortHelp() []key.Binding {
	if km.registry == nil {
		return nil
	}
	hints := km.registry.Hints(km.phase)
	bindings := make([]key.Binding, 0, len(hints))
	for _, seq := range km.registry.order {
		desc, ok := hints[seq]
		if !ok {
			continue
		}
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(seq),
			key.WithHelp(displayKey(seq), desc),
		))
	}
	return bindings
}

// FullHelp returns a single column sorted by key.
func (km *KeyMap) FullHelp() [][]key.Binding {
	short := km.ShortHelp()
	if len(short) == 0 {
		return nil
	}
	sort.Slice(short, func(i, j int) bool {
		return short[i].Help().Key < short[j].Help().Key
	})
	return [][]key.Binding{short}
}

func displayKey(seq string) string {
	if seq == "SPC" {
		return "space"
	}
	return seq
}
