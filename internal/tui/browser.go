package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View modes
type viewMode int

const (
	fileBrowserMode viewMode = iota
	sequencerMode
)

var (
	dirStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAFF")).
			Bold(true)

	midiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))
)

const newPatternName = "new_pattern.mid"

// freePatternPath returns the first of new_pattern.mid, new_pattern_2.mid,
// ... that does not exist in dir.
func freePatternPath(dir string) string {
	path := filepath.Join(dir, newPatternName)
	base := strings.TrimSuffix(newPatternName, filepath.Ext(newPatternName))
	for i := 2; ; i++ {
		if _, err := os.Stat(path); err != nil {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.mid", base, i))
	}
}

type fileInfo struct {
	name  string
	path  string
	isDir bool
}

// fileBrowser lists directories and MIDI files
type fileBrowser struct {
	currentDir string
	files      []fileInfo
	cursor     int
	message    string
}

func (fb *fileBrowser) loadFiles() {
	fb.files = []fileInfo{}

	if parent := filepath.Dir(fb.currentDir); parent != fb.currentDir {
		fb.files = append(fb.files, fileInfo{name: "..", path: parent, isDir: true})
	}

	entries, err := os.ReadDir(fb.currentDir)
	if err != nil {
		fb.message = fmt.Sprintf("Error reading directory: %v", err)
		return
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.IsDir() || strings.HasSuffix(strings.ToLower(entry.Name()), ".mid") {
			fb.files = append(fb.files, fileInfo{
				name:  entry.Name(),
				path:  filepath.Join(fb.currentDir, entry.Name()),
				isDir: entry.IsDir(),
			})
		}
	}

	if fb.cursor >= len(fb.files) {
		fb.cursor = len(fb.files) - 1
	}
	if fb.cursor < 0 {
		fb.cursor = 0
	}
}

// App is the sequencer workspace: a file browser for patterns and the
// step sequencer that edits them
type App struct {
	voice       Voice
	mode        viewMode
	fileBrowser fileBrowser
	steps       Steps
}

// NewApp starts the browser in dir
func NewApp(voice Voice, dir string) App {
	fb := fileBrowser{currentDir: dir}
	fb.loadFiles()
	return App{voice: voice, fileBrowser: fb}
}

func (m App) Init() tea.Cmd {
	return frame()
}

func (m App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.mode == sequencerMode && key.String() == "q" {
			// back to the files, the voice stops with the transport
			m.steps.stop()
			m.mode = fileBrowserMode
			m.fileBrowser.loadFiles()
			return m, nil
		}
		if m.mode == fileBrowserMode {
			return m.updateFileBrowser(key)
		}
	}

	if _, ok := msg.(frameMsg); ok && m.mode == fileBrowserMode {
		return m, frame()
	}
	if m.mode != sequencerMode {
		return m, nil
	}

	next, cmd := m.steps.Update(msg)
	m.steps = next.(Steps)
	return m, cmd
}

func (m *App) open(path string) {
	steps, err := NewSteps(m.voice, path)
	if err != nil {
		m.fileBrowser.message = fmt.Sprintf("Error loading MIDI: %v", err)
		return
	}
	m.steps = steps
	m.mode = sequencerMode
}

func (m App) updateFileBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fb := &m.fileBrowser

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if fb.cursor > 0 {
			fb.cursor--
		}
	case "down", "j":
		if fb.cursor < len(fb.files)-1 {
			fb.cursor++
		}
	case "enter":
		if len(fb.files) == 0 {
			return m, nil
		}
		selected := fb.files[fb.cursor]
		if selected.isDir {
			fb.currentDir = selected.path
			fb.cursor = 0
			fb.message = ""
			fb.loadFiles()
			return m, nil
		}
		m.open(selected.path)
	case "n":
		path := freePatternPath(fb.currentDir)
		if err := NewPattern().Save(path); err != nil {
			fb.message = fmt.Sprintf("Error creating MIDI: %v", err)
			return m, nil
		}
		m.open(path)
	case "d":
		if len(fb.files) == 0 {
			return m, nil
		}
		selected := fb.files[fb.cursor]
		if selected.isDir {
			return m, nil
		}
		if err := os.Remove(selected.path); err != nil {
			fb.message = fmt.Sprintf("Error deleting: %v", err)
			return m, nil
		}
		fb.message = fmt.Sprintf("Deleted %s", selected.name)
		fb.loadFiles()
	}

	return m, nil
}

func (m App) View() string {
	if m.mode == sequencerMode {
		return m.steps.View()
	}
	return m.viewFileBrowser()
}

func (m App) viewFileBrowser() string {
	fb := m.fileBrowser

	var b strings.Builder
	b.WriteString(titleStyle.Render("wavesynth patterns") + "\n\n")
	b.WriteString(fmt.Sprintf("Current Directory: %s\n\n", fb.currentDir))

	if len(fb.files) == 0 {
		b.WriteString("No MIDI files or directories found.\n")
	}
	for i, file := range fb.files {
		cursor := " "
		if i == fb.cursor {
			cursor = ">"
		}

		name := midiStyle.Render(file.name)
		if file.isDir {
			name = dirStyle.Render(file.name + "/")
		}

		line := fmt.Sprintf("%s %s\n", cursor, name)
		if i == fb.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
	}

	b.WriteString("\n")
	if fb.message != "" {
		b.WriteString(errorStyle.Render(fb.message) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("↑/k: up • ↓/j: down • enter: open • n: new pattern • d: delete • q: quit"))

	return b.String()
}
