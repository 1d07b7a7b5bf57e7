package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	"github.com/itogami/todolist/backend/client"
	"github.com/itogami/todolist/backend/todosvc"
)

func main() {
	fs := flag.NewFlagSet("todoctl", flag.ExitOnError)
	var (
		serverURL = fs.String(
			"server.url",
			getEnv("TODOLIST_URL", "http://localhost:8000"),
			"todosvc base URL",
		)
		sessionFile = fs.String(
			"session.file",
			getEnv("TODOLIST_SESSION", defaultSessionPath()),
			"path of the stored session",
		)
		filterName = fs.String(
			"filter",
			"all",
			"task filter: all, pending or completed",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags] <command> [args]")
	fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	}

	c, err := client.New(*serverURL, *sessionFile, logger)
	if err != nil {
		exitWith(err)
	}

	filter := client.Filter(*filterName)
	if !filter.Valid() {
		exitWith(fmt.Errorf("unknown filter %q", *filterName))
	}
	c.SetFilter(filter)

	ctx := context.Background()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		if len(rest) != 3 {
			exitWith(fmt.Errorf("usage: register <username> <email> <password>"))
		}
		if err := c.Register(ctx, rest[0], rest[1], rest[2]); err != nil {
			exitWith(err)
		}
		fmt.Printf("registered as %s\n", c.User().Username)
	case "login":
		if len(rest) != 2 {
			exitWith(fmt.Errorf("usage: login <email> <password>"))
		}
		if err := c.Login(ctx, rest[0], rest[1]); err != nil {
			exitWith(err)
		}
		fmt.Printf("logged in as %s\n", c.User().Username)
	case "logout":
		if err := c.Logout(); err != nil {
			exitWith(err)
		}
		fmt.Println("logged out")
	case "list":
		if err := c.Refresh(ctx); err != nil {
			exitWith(err)
		}
		printTasks(c.Tasks())
	case "add":
		if len(rest) < 1 {
			exitWith(fmt.Errorf("usage: add <title> [description] [priority]"))
		}
		var description string
		var priority todosvc.Priority
		if len(rest) > 1 {
			description = rest[1]
		}
		if len(rest) > 2 {
			priority = todosvc.Priority(rest[2])
		}
		task, err := c.CreateTask(ctx, rest[0], description, priority)
		if err != nil {
			exitWith(err)
		}
		fmt.Printf("created todo %d\n", task.ID)
	case "done", "undo":
		id := parseID(rest)
		completed := cmd == "done"
		if _, err := c.UpdateTask(ctx, id, todosvc.TaskUpdate{Completed: &completed}); err != nil {
			exitWith(err)
		}
	case "edit":
		if len(rest) < 2 {
			exitWith(fmt.Errorf("usage: edit <id> <title> [description] [priority]"))
		}
		id := parseID(rest)
		update := todosvc.TaskUpdate{Title: &rest[1]}
		if len(rest) > 2 {
			update.Description = &rest[2]
		}
		if len(rest) > 3 {
			priority := todosvc.Priority(rest[3])
			update.Priority = &priority
		}
		if _, err := c.UpdateTask(ctx, id, update); err != nil {
			exitWith(err)
		}
	case "rm":
		id := parseID(rest)
		if err := c.DeleteTask(ctx, id); err != nil {
			exitWith(err)
		}
	case "stats":
		if err := c.Refresh(ctx); err != nil {
			exitWith(err)
		}
		s := c.Stats()
		fmt.Printf("total\t%d\ncompleted\t%d\npending\t%d\nhigh priority\t%d\n",
			s.Total, s.Completed, s.Pending, s.HighPriority)
	default:
		fs.Usage()
		os.Exit(1)
	}
}

func printTasks(tasks []todosvc.Task) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tTITLE\tDESCRIPTION")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, done, t.Priority, t.Title, t.Description)
	}
	w.Flush()
}

func parseID(args []string) uint64 {
	if len(args) < 1 {
		exitWith(fmt.Errorf("todo id is required"))
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		exitWith(fmt.Errorf("invalid todo id %q", args[0]))
	}
	return id
}

func exitWith(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".todoctl.json"
	}
	return filepath.Join(home, ".todoctl.json")
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "COMMANDS\n")
		fmt.Fprintf(os.Stderr, "  register <username> <email> <password>\n")
		fmt.Fprintf(os.Stderr, "  login <email> <password>\n")
		fmt.Fprintf(os.Stderr, "  logout\n")
		fmt.Fprintf(os.Stderr, "  list\n")
		fmt.Fprintf(os.Stderr, "  add <title> [description] [priority]\n")
		fmt.Fprintf(os.Stderr, "  done <id>\n")
		fmt.Fprintf(os.Stderr, "  undo <id>\n")
		fmt.Fprintf(os.Stderr, "  edit <id> <title> [description] [priority]\n")
		fmt.Fprintf(os.Stderr, "  rm <id>\n")
		fmt.Fprintf(os.Stderr, "  stats\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}
