package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/coursekeep/internal/downloads"
	"github.com/tanq16/coursekeep/internal/events"
)

type JobOutput struct {
	ID          string
	Label       string
	Status      string
	Message     string
	Bytes       int64
	Total       int64
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
	Index       int
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager redraws the state of running downloads on a ticker. It is safe
// for concurrent use; the display goroutine only reads under the lock.
type Manager struct {
	out         io.Writer
	interactive bool
	outputs     map[string]*JobOutput
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	count       int
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return NewManagerTo(os.Stdout, isTerminal())
}

// NewManagerTo writes to out. Without interactive, progress is not redrawn
// and only the summary is printed.
func NewManagerTo(out io.Writer, interactive bool) *Manager {
	return &Manager{
		out:         out,
		interactive: interactive,
		outputs:     make(map[string]*JobOutput),
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

func (m *Manager) Register(id, label string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.outputs[id]; exists {
		return
	}
	m.count++
	m.outputs[id] = &JobOutput{
		ID:          id,
		Label:       label,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.count,
	}
}

func (m *Manager) SetProgress(id string, bytes, total int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists && !info.Complete {
		info.Status = "running"
		info.Bytes, info.Total = bytes, total
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		if message == "" {
			message = fmt.Sprintf("Downloaded %s", info.Label)
		}
		info.Message = message
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.Message = fmt.Sprintf("Failed %s", info.Label)
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Label: info.Label, Error: err, Time: time.Now()})
	}
}

// HandleDownload feeds a download bus event into the display. Events that
// do not belong to a scheduled job are ignored.
func (m *Manager) HandleDownload(ev events.Download) {
	if ev.JobID == "" {
		return
	}
	switch ev.Kind {
	case events.VideoStateChanged:
		if ev.State == downloads.Partial {
			m.Register(ev.JobID, ev.BlockID+"/"+ev.VideoID)
		}
	case events.ProgressChanged:
		m.SetProgress(ev.JobID, ev.Bytes, ev.Total)
	case events.Ended:
		if ev.Err != nil {
			m.ReportError(ev.JobID, ev.Err)
		} else {
			m.Complete(ev.JobID, "")
		}
	}
}

func (m *Manager) Failures() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.errors)
}

func (m *Manager) Status(id string) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if info, exists := m.outputs[id]; exists {
		return info.Status
	}
	return "unknown"
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sorted() []*JobOutput {
	all := make([]*JobOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		all = append(all, info)
	}
	slices.SortFunc(all, func(a, b *JobOutput) int { return a.Index - b.Index })
	return all
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, termHeight := terminalSize()
	availableLines := termHeight - 3

	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	jobs := m.sorted()
	if len(jobs) > availableLines {
		jobs = jobs[len(jobs)-availableLines:]
	}
	indent := strings.Repeat(" ", 2)
	for _, info := range jobs {
		elapsed := time.Since(info.StartTime).Round(time.Second)
		if info.Complete {
			elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
		}
		line := fmt.Sprintf("%s%s %s ", indent, statusIndicator(info.Status), debugStyle.Render(elapsed.String()))
		switch info.Status {
		case "running":
			line += ProgressBar(info.Bytes, info.Total, 30) + pendingStyle.Render(info.Label) + " " +
				debugStyle.Render(FormatSpeed(info.Bytes, time.Since(info.StartTime).Seconds()))
		case "success":
			line += successStyle.Render(info.Message)
		case "error":
			line += errorStyle.Render(info.Message)
		default:
			line += pendingStyle.Render("Waiting " + info.Label)
		}
		fmt.Fprintln(m.out, line)
	}
	m.numLines = len(jobs)
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if m.interactive {
					m.updateDisplay()
				}
			case <-m.doneCh:
				if m.interactive {
					m.updateDisplay()
				}
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var success, failures int
	for _, info := range m.outputs {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	indent := strings.Repeat(" ", 2)
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, indent+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Fprintln(m.out, indent+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	if len(m.errors) > 0 {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, indent+errorStyle.Bold(true).Render("Errors:"))
		for i, e := range m.errors {
			fmt.Fprintf(m.out, "%s%s %s %s\n", indent+indent,
				errorStyle.Render(fmt.Sprintf("%d.", i+1)),
				debugStyle.Render(fmt.Sprintf("[%s]", e.Time.Format("15:04:05"))),
				errorStyle.Render(e.Label))
			fmt.Fprintf(m.out, "%s%s\n", indent+indent+indent, errorStyle.Render(fmt.Sprintf("Error: %v", e.Error)))
		}
	}
	fmt.Fprintln(m.out)
}
