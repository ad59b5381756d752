// ABOUTME: Interactive operator console reading commands from stdin
// ABOUTME: Drives the fleet supervisor and prints live notifications

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/botherd/botherd/internal/commands"
	"github.com/botherd/botherd/internal/config"
	"github.com/botherd/botherd/internal/events"
	"github.com/botherd/botherd/internal/fleet"
)

// console is the line-oriented operator interface. One command per line;
// fleet notifications are printed as they arrive.
type console struct {
	sup         *fleet.Supervisor
	cfg         *config.Config
	catalog     *commands.Catalog
	broadcaster *events.Broadcaster
}

func newConsole(sup *fleet.Supervisor, cfg *config.Config, catalog *commands.Catalog, broadcaster *events.Broadcaster) *console {
	return &console{
		sup:         sup,
		cfg:         cfg,
		catalog:     catalog,
		broadcaster: broadcaster,
	}
}

// run processes operator commands until stdin closes, the operator quits,
// or ctx is cancelled.
func (c *console) run(ctx context.Context) {
	go c.printNotifications(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !c.dispatch(line) {
				return
			}
		}
	}
}

// dispatch handles one command line. Returns false when the operator quits.
func (c *console) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false
	case "help":
		c.printHelp()
	case "status":
		c.printStatus()
	case "start":
		if len(fields) != 2 {
			fmt.Println("usage: start <bot>")
			return true
		}
		bot, ok := c.cfg.Bot(fields[1])
		if !ok {
			fmt.Printf("no bot %q in config\n", fields[1])
			return true
		}
		if err := c.sup.Start(botConfig(bot)); err != nil {
			fmt.Printf("start failed: %v\n", err)
		}
	case "stop":
		if len(fields) != 2 {
			fmt.Println("usage: stop <bot>")
			return true
		}
		if err := c.sup.Stop(fields[1]); err != nil {
			fmt.Printf("stop failed: %v\n", err)
		}
	case "say":
		if len(fields) < 3 {
			fmt.Println("usage: say <bot> <text>")
			return true
		}
		text := strings.Join(fields[2:], " ")
		res, err := c.sup.Send(fields[1], text)
		if err != nil {
			fmt.Printf("send failed: %v\n", err)
			return true
		}
		if res == fleet.SendQueued {
			fmt.Println("(queued for delivery after reconnect)")
		}
	case "quick":
		if len(fields) != 3 {
			fmt.Println("usage: quick <bot> <command>")
			fmt.Printf("available: %s\n", strings.Join(c.catalog.Names(), ", "))
			return true
		}
		c.runQuick(fields[1], fields[2])
	default:
		fmt.Printf("unknown command %q (try help)\n", fields[0])
	}
	return true
}

// runQuick expands a quick command into its chat lines and sends them
// through the normal fleet path, so they queue like anything else.
func (c *console) runQuick(botID, name string) {
	cmd, ok := c.catalog.Get(name)
	if !ok {
		fmt.Printf("no quick command %q (available: %s)\n", name, strings.Join(c.catalog.Names(), ", "))
		return
	}
	queued := 0
	for _, text := range cmd.Say {
		res, err := c.sup.Send(botID, text)
		if err != nil {
			fmt.Printf("send failed: %v\n", err)
			return
		}
		if res == fleet.SendQueued {
			queued++
		}
	}
	if queued > 0 {
		fmt.Printf("(%d line(s) queued for delivery after reconnect)\n", queued)
	}
}

func (c *console) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  status              Show every bot's state")
	fmt.Println("  start <bot>         Connect a configured bot")
	fmt.Println("  stop <bot>          Disconnect a bot (no auto-reconnect)")
	fmt.Println("  say <bot> <text>    Send chat, queueing if the bot is down")
	fmt.Println("  quick <bot> <name>  Run a quick command from the catalog")
	fmt.Println("  quit                Shut the fleet down and exit")
}

func (c *console) printStatus() {
	all := c.sup.AllStatuses()
	if len(all) == 0 {
		fmt.Println("no bots started yet")
		return
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rec := all[id]
		fmt.Printf("  %-12s %s", id, stateLabel(rec.State))
		if rec.ConnectedSince != nil {
			fmt.Printf("  since %s", rec.ConnectedSince.Format("15:04:05"))
		}
		if rec.LastError != "" {
			fmt.Printf("  last error: %s", rec.LastError)
		}
		fmt.Println()
	}
}

func stateLabel(s fleet.State) string {
	switch s {
	case fleet.StateOnline:
		return color.GreenString("%-10s", s.String())
	case fleet.StateConnecting:
		return color.YellowString("%-10s", s.String())
	case fleet.StateError:
		return color.RedString("%-10s", s.String())
	default:
		return color.HiBlackString("%-10s", s.String())
	}
}

// printNotifications tails the firehose and prints chat and server
// messages. Status changes are already covered by the supervisor's logs.
func (c *console) printNotifications(ctx context.Context) {
	ch, _ := c.broadcaster.Subscribe(ctx, events.FirehoseKey)
	gray := color.New(color.FgHiBlack)

	for n := range ch {
		switch n.Kind {
		case fleet.KindChat:
			gray.Printf("  [%s] ", n.BotID)
			fmt.Printf("<%s> %s\n", n.Chat.Sender, n.Chat.Text)
		case fleet.KindLog:
			gray.Printf("  [%s] ", n.BotID)
			gray.Println(n.Line)
		}
	}
}
