// Package interactive provides the interactive command-line interface
// for the ledsignal daemon.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/ledsignal/ledsignal-go/pkg/command"
	"github.com/ledsignal/ledsignal-go/pkg/discovery"
	"github.com/ledsignal/ledsignal-go/pkg/serial"
	"github.com/ledsignal/ledsignal-go/pkg/service"
)

// Console handles interactive mode for ledsignal.
type Console struct {
	svc *service.Service
	rl  *readline.Instance
	out io.Writer

	// listPorts enumerates serial ports for the "ports" command.
	listPorts serial.ListFunc

	// browse finds other daemons for the "browse" command.
	browse func(ctx context.Context) (<-chan *discovery.Service, error)
}

// New creates a console bound to the terminal.
func New(svc *service.Service) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ledsignal> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("status"),
			readline.PcItem("connect"),
			readline.PcItem("disconnect"),
			readline.PcItem("send",
				readline.PcItem("off"),
				readline.PcItem("green"),
				readline.PcItem("yellow"),
				readline.PcItem("red"),
			),
			readline.PcItem("analyze"),
			readline.PcItem("history"),
			readline.PcItem("ports"),
			readline.PcItem("browse"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newConsole(svc, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(svc *service.Service, out io.Writer) *Console {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	return &Console{
		svc:       svc,
		out:       out,
		listPorts: serial.SystemPorts,
		browse:    browser.Browse,
	}
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with the command line.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. cancel is called when
// the user quits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	// Closing readline unblocks a pending Readline on shutdown.
	stop := context.AfterFunc(ctx, func() { c.rl.Close() })
	defer stop()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if ctx.Err() == nil {
				fmt.Fprintln(c.out, "Exiting...")
			}
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the user asked to
// quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "s":
		c.cmdStatus()

	case "connect", "c":
		c.cmdConnect(ctx)

	case "disconnect", "d":
		c.svc.Disconnect()
		fmt.Fprintln(c.out, "Disconnected")

	case "send":
		c.cmdSend(ctx, args)

	case "analyze", "a":
		c.cmdAnalyze(ctx, args)

	case "history", "h":
		c.cmdHistory(ctx, args)

	case "ports":
		c.cmdPorts()

	case "browse":
		c.cmdBrowse(ctx, args)

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
ledsignal Commands:
  Device:
    connect            - Open the serial device
    disconnect         - Close the serial device
    send <command>     - Send OFF, GREEN, YELLOW or RED directly
    status             - Show device and analysis status
    ports              - List serial ports

  Analysis:
    analyze <file>     - Analyze a C source file and update the LED
    history [n]        - Show the last n analyses (default 10)

  Network:
    browse [seconds]   - Find other ledsignal daemons (default 3s)

  General:
    help               - Show this help
    quit               - Exit`)
}

func (c *Console) cmdStatus() {
	st := c.svc.Status()

	fmt.Fprintln(c.out, "\nDevice Status")
	fmt.Fprintln(c.out, "-------------------------------------------")
	fmt.Fprintf(c.out, "  State:          %s\n", st.Device.State)
	if st.Device.Port != "" {
		fmt.Fprintf(c.out, "  Port:           %s\n", st.Device.Port)
	}
	if st.Device.SessionID != "" {
		fmt.Fprintf(c.out, "  Session:        %s\n", st.Device.SessionID)
	}
	if !st.Device.ConnectedAt.IsZero() {
		fmt.Fprintf(c.out, "  Connected for:  %s\n", time.Since(st.Device.ConnectedAt).Round(time.Second))
	}
	if st.Device.LastCommand != "" {
		fmt.Fprintf(c.out, "  Last command:   %s\n", st.Device.LastCommand)
	}
	if st.Device.LastError != "" {
		fmt.Fprintf(c.out, "  Last error:     %s\n", st.Device.LastError)
	}

	if st.Decision != nil {
		fmt.Fprintf(c.out, "  Shown result:   %s (%d errors, %d suggestions)\n",
			st.Decision.Command, st.Decision.ErrorCount, st.Decision.SuggestionCount)
	}
	if st.Summary != "" {
		fmt.Fprintf(c.out, "  Summary:        %s\n", st.Summary)
	}
	fmt.Fprintf(c.out, "  Reconcile:      %d sent, %d exhausted, %d failures\n",
		st.Reconcile.Sent, st.Reconcile.Exhausted, st.Reconcile.Failures)
}

func (c *Console) cmdConnect(ctx context.Context) {
	if err := c.svc.Connect(ctx); err != nil {
		fmt.Fprintf(c.out, "Connect failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Connected to %s\n", c.svc.Status().Device.Port)
}

func (c *Console) cmdSend(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: send <off|green|yellow|red>")
		return
	}
	cmd, err := command.Parse(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if err := c.svc.Send(ctx, cmd); err != nil {
		fmt.Fprintf(c.out, "Send failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Sent %s\n", cmd)
}

func (c *Console) cmdAnalyze(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: analyze <file>")
		return
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(c.out, "Analyzing %s...\n", args[0])
	report, err := c.svc.Analyze(ctx, string(data))
	if err != nil {
		fmt.Fprintf(c.out, "Analysis failed: %v\n", err)
		return
	}

	fmt.Fprintf(c.out, "Result: %s\n", report.Decision.Command)
	if report.Result.Summary != "" {
		fmt.Fprintf(c.out, "  %s\n", report.Result.Summary)
	}
	for _, e := range report.Result.Errors {
		fmt.Fprintf(c.out, "  error:      %s\n", e)
	}
	for _, s := range report.Result.Suggestions {
		fmt.Fprintf(c.out, "  suggestion: %s\n", s)
	}
	if report.Result.Malformed {
		fmt.Fprintln(c.out, "  (analyzer output had no error or suggestion lists)")
	}
}

func (c *Console) cmdHistory(ctx context.Context, args []string) {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(c.out, "Usage: history [n]")
			return
		}
		limit = n
	}

	entries, err := c.svc.History(ctx, limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		fmt.Fprintln(c.out, "History is disabled (set history.path in the config)")
		return
	}
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "No analyses yet")
		return
	}

	for _, e := range entries {
		detail := fmt.Sprintf("%d errors, %d suggestions", len(e.Errors), len(e.Suggestions))
		if e.Failure != "" {
			detail = "failed: " + e.Failure
		}
		fmt.Fprintf(c.out, "  #%-4d %s  %-6s  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Command, detail)
	}
}

func (c *Console) cmdPorts() {
	ports, err := c.listPorts()
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(c.out, "No serial ports found")
		return
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Fprintf(c.out, "  %-20s USB %s:%s %s\n", p.Name, p.VID, p.PID, p.Product)
		} else {
			fmt.Fprintf(c.out, "  %s\n", p.Name)
		}
	}
}

func (c *Console) cmdBrowse(ctx context.Context, args []string) {
	timeout := 3 * time.Second
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Fprintln(c.out, "Usage: browse [seconds]")
			return
		}
		timeout = time.Duration(n) * time.Second
	}

	bctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	services, err := c.browse(bctx)
	if err != nil {
		fmt.Fprintf(c.out, "Browse failed: %v\n", err)
		return
	}

	found := 0
	for svc := range services {
		found++
		fmt.Fprintf(c.out, "  %-20s %s:%d  %s %s %s\n",
			svc.InstanceName, svc.Host, svc.Port, svc.DevicePort, svc.State, svc.LastCommand)
	}
	if found == 0 {
		fmt.Fprintln(c.out, "No daemons found")
	}
}
