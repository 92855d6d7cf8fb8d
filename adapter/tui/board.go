// Package tui provides the interactive task board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/homework/internal/homework/application"
	"github.com/felixgeelhaar/homework/internal/homework/domain/task"
	"github.com/felixgeelhaar/homework/internal/shared/infrastructure/eventbus"
)

// Store is the part of the task store the board uses.
type Store interface {
	List(ctx context.Context, filter application.ListFilter) []application.TaskDTO
	TeacherCatalog(ctx context.Context) []string
	Stats(ctx context.Context) application.Stats
	ToggleComplete(ctx context.Context, id int64) (application.TaskDTO, error)
	Delete(ctx context.Context, id int64) error
}

// Option configures the board.
type Option func(*boardConfig)

type boardConfig struct {
	bus          *eventbus.InProcessEventBus
	tickInterval time.Duration
}

// WithBus redraws the board whenever the store publishes a change.
func WithBus(bus *eventbus.InProcessEventBus) Option {
	return func(c *boardConfig) {
		c.bus = bus
	}
}

// WithTickInterval sets how often deadline labels are recomputed.
func WithTickInterval(d time.Duration) Option {
	return func(c *boardConfig) {
		c.tickInterval = d
	}
}

// Run starts the board and blocks until the user quits or ctx is done.
func Run(ctx context.Context, store Store, opts ...Option) error {
	c := &boardConfig{tickInterval: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("board requires a TTY")
	}

	model := newModel(ctx, store, c.tickInterval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if c.bus != nil {
		unregister := c.bus.RegisterConsumer(eventbus.ConsumerFunc{
			Types: task.RoutingKeys(),
			Fn: func(context.Context, *eventbus.ConsumedEvent) error {
				// Send blocks until the event loop reads it.
				go program.Send(changedMsg{})
				return nil
			},
		})
		defer unregister()
	}

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

type model struct {
	ctx          context.Context
	store        Store
	tickInterval time.Duration

	tasks    []application.TaskDTO
	stats    application.Stats
	teachers []string

	cursor         int
	priorityFilter int    // 0 shows every priority
	teacherFilter  string // "" shows every teacher

	confirmDelete *application.TaskDTO
	status        string
	err           error
}

type loadedMsg struct {
	tasks    []application.TaskDTO
	stats    application.Stats
	teachers []string
}

type changedMsg struct{}

type opDoneMsg struct {
	status string
	err    error
}

type tickMsg time.Time

func newModel(ctx context.Context, store Store, tick time.Duration) *model {
	return &model{
		ctx:          ctx,
		store:        store,
		tickInterval: tick,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.load(), tickCmd(m.tickInterval))
}

func (m *model) filter() application.ListFilter {
	f := application.ListFilter{TeacherSubstring: m.teacherFilter}
	if m.priorityFilter != 0 {
		p := m.priorityFilter
		f.Priority = &p
	}
	return f
}

func (m *model) load() tea.Cmd {
	store, ctx, filter := m.store, m.ctx, m.filter()
	return func() tea.Msg {
		return loadedMsg{
			tasks:    store.List(ctx, filter),
			stats:    store.Stats(ctx),
			teachers: store.TeacherCatalog(ctx),
		}
	}
}

func (m *model) toggle(t application.TaskDTO) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		updated, err := store.ToggleComplete(ctx, t.ID)
		if err != nil {
			return opDoneMsg{err: err}
		}
		if updated.Completed {
			return opDoneMsg{status: "Completed: " + updated.Description}
		}
		return opDoneMsg{status: "Reopened: " + updated.Description}
	}
}

func (m *model) delete(t application.TaskDTO) tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		if err := store.Delete(ctx, t.ID); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{status: "Deleted: " + t.Description}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) selected() (application.TaskDTO, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return application.TaskDTO{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmDelete != nil {
			return m.updateConfirm(msg)
		}
		return m.updateKey(msg)

	case loadedMsg:
		m.tasks = msg.tasks
		m.stats = msg.stats
		m.teachers = msg.teachers
		if m.cursor >= len(m.tasks) {
			m.cursor = max(len(m.tasks)-1, 0)
		}
		return m, nil

	case changedMsg:
		return m, m.load()

	case opDoneMsg:
		m.err = msg.err
		m.status = msg.status
		// A persistence failure still changed the in-memory collection.
		return m, m.load()

	case tickMsg:
		return m, tea.Batch(m.load(), tickCmd(m.tickInterval))
	}
	return m, nil
}

func (m *model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case " ", "x":
		if t, ok := m.selected(); ok {
			return m, m.toggle(t)
		}
	case "d":
		if t, ok := m.selected(); ok {
			m.confirmDelete = &t
			m.status = ""
			m.err = nil
		}
	case "p":
		m.priorityFilter = (m.priorityFilter + 1) % (int(task.PriorityLowest) + 1)
		m.cursor = 0
		return m, m.load()
	case "t":
		m.teacherFilter = nextTeacher(m.teachers, m.teacherFilter)
		m.cursor = 0
		return m, m.load()
	case "r":
		return m, m.load()
	}
	return m, nil
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := *m.confirmDelete
	switch msg.String() {
	case "y", "Y":
		m.confirmDelete = nil
		return m, m.delete(t)
	case "n", "N", "esc":
		m.confirmDelete = nil
		m.status = "Delete cancelled"
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// nextTeacher cycles "" -> first teacher -> ... -> last teacher -> "".
func nextTeacher(teachers []string, current string) string {
	if current == "" {
		if len(teachers) == 0 {
			return ""
		}
		return teachers[0]
	}
	for i, t := range teachers {
		if t == current && i+1 < len(teachers) {
			return teachers[i+1]
		}
	}
	return ""
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Homework") + "\n\n")

	b.WriteString(fmt.Sprintf("  Tasks: %d  Done: %d  Pending: %d  Overdue: %d  Pages: %d\n",
		m.stats.TotalTasks, m.stats.CompletedTasks, m.stats.PendingTasks, m.stats.OverdueTasks, m.stats.TotalPages))
	b.WriteString(filterStyle.Render(fmt.Sprintf("  Teacher: %s  Priority: %s",
		orAll(m.teacherFilter), priorityLabel(m.priorityFilter))) + "\n\n")

	if len(m.tasks) == 0 {
		b.WriteString("  No tasks match.\n\n")
	}
	for i, t := range m.tasks {
		b.WriteString(renderRow(t, i == m.cursor) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.confirmDelete != nil:
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q for %s? (y/n)",
			m.confirmDelete.Description, m.confirmDelete.Teacher)) + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render("j/k move | space toggle | d delete | p priority | t teacher | r refresh | q quit") + "\n")
	return b.String()
}

func renderRow(t application.TaskDTO, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s P%d %-16s %-32s %3dp  %s",
		check, t.Priority, truncate(t.Teacher, 16), truncate(t.Description, 32), t.PageCount, t.DeadlineLabel)

	style := rowStyle
	switch {
	case t.Completed:
		style = doneStyle
	case task.Urgency(t.Urgency) == task.UrgencyOverdue:
		style = overdueStyle
	case task.Urgency(t.Urgency) == task.UrgencyDueSoon:
		style = dueSoonStyle
	}
	if selected {
		style = style.Inherit(selectedStyle)
	}
	return cursor + style.Render(line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func priorityLabel(p int) string {
	if p == 0 {
		return "all"
	}
	return fmt.Sprintf("%d", p)
}
