package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/scorelift/scorelift/pkg/omr"
)

// =============================================================================
// JobTableModel - Live recognition progress
// =============================================================================

// jobMsg carries a page job state change into the model.
type jobMsg omr.Job

// jobsDoneMsg signals that the recognition stage finished.
type jobsDoneMsg struct{}

// tickMsg drives the elapsed-time column while jobs run.
type tickMsg time.Time

// JobTableModel is the bubbletea model showing per-page recognition state.
// The run command feeds it job updates via Program.Send; the model only
// renders, all recognition work happens in the pipeline goroutine.
type JobTableModel struct {
	jobs    map[int]omr.Job // keyed by page number
	start   time.Time
	done    bool
	aborted bool
}

// NewJobTableModel creates an empty job table.
func NewJobTableModel() JobTableModel {
	return JobTableModel{jobs: map[int]omr.Job{}, start: time.Now()}
}

// Aborted reports whether the user quit the view before completion.
func (m JobTableModel) Aborted() bool {
	return m.aborted
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m JobTableModel) Init() tea.Cmd {
	return tick()
}

func (m JobTableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	case jobMsg:
		m.jobs[omr.Job(msg).Page] = omr.Job(msg)
	case jobsDoneMsg:
		m.done = true
		return m, tea.Quit
	case tickMsg:
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

func (m JobTableModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Recognizing pages"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit (recognition keeps running)"))
	b.WriteString("\n\n")

	pages := make([]int, 0, len(m.jobs))
	for p := range m.jobs {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	rows := [][]string{}
	for _, p := range pages {
		j := m.jobs[p]
		rows = append(rows, []string{
			fmt.Sprintf("%d", j.Page),
			filepath.Base(j.Image),
			string(j.State),
			jobElapsed(j),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Page", "Image", "State", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(pages) {
				return lipgloss.NewStyle()
			}
			j := m.jobs[pages[row]]
			return jobStyle(j.State)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s elapsed", time.Since(m.start).Round(time.Second))))

	return b.String()
}

// jobStyle maps a job state to its row style.
func jobStyle(state omr.JobState) lipgloss.Style {
	switch state {
	case omr.JobRunning:
		return lipgloss.NewStyle().Foreground(colorCyan)
	case omr.JobDone, omr.JobCached:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case omr.JobFailed:
		return lipgloss.NewStyle().Foreground(colorRed)
	default:
		return lipgloss.NewStyle().Foreground(colorDim)
	}
}

// jobElapsed formats the time a job has spent so far.
func jobElapsed(j omr.Job) string {
	switch j.State {
	case omr.JobPending:
		return "—"
	case omr.JobRunning:
		return time.Since(j.Started).Round(time.Second).String()
	case omr.JobCached:
		return "cache"
	default:
		if j.Finished.IsZero() || j.Started.IsZero() {
			return "—"
		}
		return j.Finished.Sub(j.Started).Round(time.Second).String()
	}
}
