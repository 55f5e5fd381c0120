package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CK6170/Sensorcal-go/calib"
	"github.com/CK6170/Sensorcal-go/device"
)

type screen int

const (
	screenMenu screen = iota
	screenEnter
	screenLoad
	screenConvert
	screenSave
)

type enterPhase int

const (
	phaseCount enterPhase = iota
	phaseReference
	phaseRaw
)

type model struct {
	scr screen

	// the one calibration record the whole program revolves around
	cal calib.Calibration

	input    textinput.Model
	lastErr  error
	infoLine string

	// pause mimics the classic "press Enter to continue" before the menu
	// redisplays, so results stay on screen long enough to read.
	pause bool

	// enter-data state
	phase      enterPhase
	target     int
	points     []calib.Point
	pendingRef float64
	report     calib.Report
	haveReport bool

	// convert state
	lastRaw    float64
	lastValue  float64
	haveResult bool
	convAwait  bool // waiting for the y/n "convert another?" answer

	// serial sampling
	sess         *device.Session
	sampling     bool
	sampleCancel context.CancelFunc
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func initialModel() model {
	in := textinput.New()
	in.CharLimit = 512
	in.Width = 60

	return model{
		scr:   screenMenu,
		input: in,
	}
}

type errMsg struct{ err error }
type infoMsg struct{ s string }
type connectedMsg struct{ sess *device.Session }
type sampleDoneMsg struct{ value float64 }
type loadedMsg struct {
	cal  calib.Calibration
	path string
}
type savedMsg struct{ path string }

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if strings.TrimSpace(serialPort) != "" {
		cmds = append(cmds, connectCmd(serialPort, serialBaud))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		case "esc":
			if m.scr != screenMenu {
				m.stopSampling()
				return m.toMenu(), nil
			}
			return m, nil
		}

		if m.pause {
			if msg.String() == "enter" {
				m.pause = false
				return m.toMenu(), nil
			}
			return m, nil
		}

		switch m.scr {
		case screenMenu:
			return m.updateMenuKey(msg)
		case screenEnter:
			return m.updateEnterKey(msg)
		case screenLoad:
			return m.updateLoadKey(msg)
		case screenConvert:
			return m.updateConvertKey(msg)
		case screenSave:
			return m.updateSaveKey(msg)
		}

	case errMsg:
		m.lastErr = msg.err
		m.sampling = false
		return m, nil

	case infoMsg:
		m.infoLine = msg.s
		return m, nil

	case connectedMsg:
		m.sess = msg.sess
		m.infoLine = fmt.Sprintf("Sensor connected on %s", msg.sess.Port())
		m.lastErr = nil
		return m, nil

	case sampleDoneMsg:
		m.sampling = false
		m.input.SetValue(strconv.FormatFloat(msg.value, 'f', -1, 64))
		m.input.CursorEnd()
		m.infoLine = fmt.Sprintf("Sampled %.4f from %s", msg.value, m.sess.Port())
		return m, nil

	case loadedMsg:
		m.cal = msg.cal
		m.lastErr = nil
		m.infoLine = fmt.Sprintf("Calibration loaded successfully from '%s'", msg.path)
		m.pause = true
		return m, nil

	case savedMsg:
		m.lastErr = nil
		m.infoLine = fmt.Sprintf("Calibration saved successfully to '%s'", msg.path)
		m.pause = true
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateMenuKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "1":
		m.scr = screenEnter
		m.phase = phaseCount
		m.points = nil
		m.target = 0
		m.haveReport = false
		m.lastErr = nil
		m.resetInput("Number of data points (minimum 2)")
		return m, nil
	case "2":
		m.scr = screenLoad
		m.lastErr = nil
		m.resetInput("Filename (e.g. calibration.txt)")
		return m, nil
	case "3":
		if !m.cal.Valid {
			m.lastErr = fmt.Errorf("no calibration loaded; enter data (1) or load from file (2) first")
			return m, nil
		}
		m.scr = screenConvert
		m.haveResult = false
		m.convAwait = false
		m.lastErr = nil
		m.resetInput("Raw sensor reading")
		return m, nil
	case "4":
		if !m.cal.Valid {
			m.lastErr = fmt.Errorf("no calibration to save; enter data (1) or load from file (2) first")
			return m, nil
		}
		m.scr = screenSave
		m.lastErr = nil
		m.resetInput("Filename to save (e.g. calibration.txt)")
		return m, nil
	case "5", "q":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateEnterKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+s" && m.phase == phaseRaw {
		return m.startSampling()
	}
	if k.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(k)
		return m, cmd
	}

	text := strings.TrimSpace(m.input.Value())
	switch m.phase {
	case phaseCount:
		n, err := strconv.Atoi(text)
		if err != nil || n < calib.MinPoints {
			m.lastErr = fmt.Errorf("invalid input %q: enter an integer >= %d", text, calib.MinPoints)
			m.input.SetValue("")
			return m, nil
		}
		m.lastErr = nil
		m.target = n
		m.points = make([]calib.Point, 0, n)
		m.phase = phaseReference
		m.resetInput(fmt.Sprintf("Point %d reference value", 1))
		return m, nil

	case phaseReference:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			m.lastErr = fmt.Errorf("invalid input %q: enter a number", text)
			m.input.SetValue("")
			return m, nil
		}
		m.lastErr = nil
		m.pendingRef = v
		m.phase = phaseRaw
		m.resetInput(fmt.Sprintf("Point %d raw reading", len(m.points)+1))
		return m, nil

	case phaseRaw:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			m.lastErr = fmt.Errorf("invalid input %q: enter a number", text)
			m.input.SetValue("")
			return m, nil
		}
		m.lastErr = nil
		m.points = append(m.points, calib.Point{Raw: v, Reference: m.pendingRef})
		if len(m.points) < m.target {
			m.phase = phaseReference
			m.resetInput(fmt.Sprintf("Point %d reference value", len(m.points)+1))
			return m, nil
		}
		return m.finishFit()
	}
	return m, nil
}

// finishFit runs the least-squares fit over the collected points. On any
// failure the previous calibration stays in place.
func (m model) finishFit() (tea.Model, tea.Cmd) {
	cal, err := calib.Fit(m.points)
	if err != nil {
		m.lastErr = fmt.Errorf("cannot compute calibration: %w", err)
		m.pause = true
		return m, nil
	}
	m.cal = cal
	if rep, err := calib.Summarize(m.points, cal); err == nil {
		m.report = rep
		m.haveReport = true
	}
	m.infoLine = "Calibration updated successfully."
	m.pause = true
	return m, nil
}

func (m model) updateLoadKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(k)
		return m, cmd
	}
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		m.lastErr = fmt.Errorf("filename is empty")
		return m, nil
	}
	return m, loadCmd(path)
}

func (m model) updateConvertKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.convAwait {
		if s := k.String(); s == "y" || s == "Y" {
			m.convAwait = false
			m.haveResult = false
			m.resetInput("Raw sensor reading")
			return m, nil
		}
		return m.toMenu(), nil
	}

	if k.String() == "ctrl+s" {
		return m.startSampling()
	}
	if k.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(k)
		return m, cmd
	}

	text := strings.TrimSpace(m.input.Value())
	raw, err := strconv.ParseFloat(text, 64)
	if err != nil {
		m.lastErr = fmt.Errorf("invalid input %q: enter a number", text)
		m.input.SetValue("")
		return m, nil
	}
	value, err := m.cal.Convert(raw)
	if err != nil {
		m.lastErr = err
		return m.toMenu(), nil
	}
	m.lastErr = nil
	m.lastRaw = raw
	m.lastValue = value
	m.haveResult = true
	m.convAwait = true
	return m, nil
}

func (m model) updateSaveKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() != "enter" {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(k)
		return m, cmd
	}
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		m.lastErr = fmt.Errorf("filename is empty")
		return m, nil
	}
	cal := m.cal
	return m, func() tea.Msg {
		if err := calib.Save(path, cal); err != nil {
			return errMsg{err: err}
		}
		return savedMsg{path: path}
	}
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SENSOR CALIBRATION TOOL") + "\n")
	b.WriteString(helpStyle.Render("Ctrl+C to quit. Esc returns to the menu.") + "\n\n")
	if m.infoLine != "" {
		b.WriteString(okStyle.Render(m.infoLine) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(errStyle.Render("Error: "+m.lastErr.Error()) + "\n")
	}
	b.WriteString("\n")

	switch m.scr {
	case screenMenu:
		b.WriteString(m.viewMenu())
	case screenEnter:
		b.WriteString(m.viewEnter())
	case screenLoad:
		b.WriteString(m.viewLoad())
	case screenConvert:
		b.WriteString(m.viewConvert())
	case screenSave:
		b.WriteString(m.viewSave())
	}
	return b.String()
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("--- MAIN MENU ---\n")
	b.WriteString("  1) Enter new calibration data\n")
	b.WriteString("  2) Load existing calibration from file\n")
	b.WriteString("  3) Convert a raw reading\n")
	b.WriteString("  4) Save current calibration to file\n")
	b.WriteString("  5) Exit\n\n")
	b.WriteString("Current calibration: " + m.cal.String() + "\n")
	if m.sess != nil {
		b.WriteString(helpStyle.Render(fmt.Sprintf("Sensor on %s (Ctrl+S samples a reading in data entry and convert)", m.sess.Port())) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("Press 1-5 to choose an option.") + "\n")
	return b.String()
}

func (m model) viewEnter() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Enter calibration data") + "\n\n")
	if m.pause {
		if m.lastErr != nil {
			b.WriteString("Calibration NOT updated; the previous coefficients remain in effect.\n")
		} else {
			b.WriteString("--- CALIBRATION RESULTS ---\n")
			b.WriteString(fmt.Sprintf("Slope:  %.4f\n", m.cal.Slope))
			b.WriteString(fmt.Sprintf("Offset: %.4f\n", m.cal.Offset))
			if m.haveReport {
				b.WriteString(fmt.Sprintf("R²:     %.6f   RMSE: %.4f   (n=%d)\n", m.report.RSquared, m.report.RMSE, m.report.N))
			}
			b.WriteString("\nFormula: real = " + fmt.Sprintf("%.4f", m.cal.Slope) + " * raw + " + fmt.Sprintf("%.4f", m.cal.Offset) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("Press Enter to continue...") + "\n")
		return b.String()
	}

	if m.target > 0 {
		b.WriteString(fmt.Sprintf("Collected %d of %d points.\n\n", len(m.points), m.target))
	}
	b.WriteString(m.input.Placeholder + ":\n")
	b.WriteString(m.input.View() + "\n\n")
	if m.sampling {
		b.WriteString("Sampling from sensor...\n")
	} else if m.sess != nil && m.phase == phaseRaw {
		b.WriteString(helpStyle.Render("Ctrl+S samples the raw reading from the sensor.") + "\n")
	}
	return b.String()
}

func (m model) viewLoad() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Load calibration") + "\n\n")
	if m.pause {
		b.WriteString(fmt.Sprintf("Slope:  %.4f\n", m.cal.Slope))
		b.WriteString(fmt.Sprintf("Offset: %.4f\n", m.cal.Offset))
		b.WriteString("\n" + helpStyle.Render("Press Enter to continue...") + "\n")
		return b.String()
	}
	b.WriteString("Filename:\n")
	b.WriteString(m.input.View() + "\n")
	return b.String()
}

func (m model) viewConvert() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Convert raw reading") + "\n\n")
	b.WriteString(fmt.Sprintf("Current calibration: Slope = %.4f, Offset = %.4f\n\n", m.cal.Slope, m.cal.Offset))
	if m.haveResult {
		b.WriteString(fmt.Sprintf("Raw Reading: %.4f\n", m.lastRaw))
		b.WriteString(fmt.Sprintf("Real Value:  %.4f\n\n", m.lastValue))
	}
	if m.convAwait {
		b.WriteString("Convert another reading? (y/n)\n")
		return b.String()
	}
	b.WriteString("Raw sensor reading:\n")
	b.WriteString(m.input.View() + "\n\n")
	if m.sampling {
		b.WriteString("Sampling from sensor...\n")
	} else if m.sess != nil {
		b.WriteString(helpStyle.Render("Ctrl+S samples the raw reading from the sensor.") + "\n")
	}
	return b.String()
}

func (m model) viewSave() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Save calibration") + "\n\n")
	if m.pause {
		b.WriteString(fmt.Sprintf("Slope:  %.10f\n", m.cal.Slope))
		b.WriteString(fmt.Sprintf("Offset: %.10f\n", m.cal.Offset))
		b.WriteString("\n" + helpStyle.Render("Press Enter to continue...") + "\n")
		return b.String()
	}
	b.WriteString("Filename:\n")
	b.WriteString(m.input.View() + "\n")
	return b.String()
}

func (m *model) resetInput(placeholder string) {
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
}

func (m model) toMenu() model {
	m.scr = screenMenu
	m.pause = false
	m.convAwait = false
	m.input.Blur()
	return m
}

func (m model) startSampling() (tea.Model, tea.Cmd) {
	if m.sess == nil || m.sampling {
		return m, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.sampling = true
	m.sampleCancel = cancel
	sess := m.sess
	return m, func() tea.Msg {
		v, err := device.Average(ctx, sess, sampleIgnore, sampleAvg, nil)
		if err != nil {
			return errMsg{err: err}
		}
		return sampleDoneMsg{value: v}
	}
}

func (m *model) stopSampling() {
	if m.sampleCancel != nil {
		m.sampleCancel()
		m.sampleCancel = nil
	}
	m.sampling = false
}

func (m *model) shutdown() {
	m.stopSampling()
	if m.sess != nil {
		_ = m.sess.Close()
		m.sess = nil
	}
}

func connectCmd(port string, baud int) tea.Cmd {
	return func() tea.Msg {
		name := port
		if strings.EqualFold(name, "auto") {
			name = device.AutoDetect(baud)
			if name == "" {
				return errMsg{err: fmt.Errorf("could not auto-detect a sensor serial port")}
			}
		}
		sess, err := device.Connect(device.Config{Port: name, Baud: baud})
		if err != nil {
			return errMsg{err: err}
		}
		return connectedMsg{sess: sess}
	}
}

func loadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cal, err := calib.Load(path)
		if err != nil {
			if os.IsNotExist(err) {
				return errMsg{err: fmt.Errorf("cannot open file '%s': make sure it exists", path)}
			}
			return errMsg{err: err}
		}
		return loadedMsg{cal: cal, path: path}
	}
}
