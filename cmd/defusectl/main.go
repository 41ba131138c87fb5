package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/tomblanch118/DAB/internal/auth"
	"github.com/tomblanch118/DAB/internal/defuse"
	"github.com/tomblanch118/DAB/internal/rounds"
	"github.com/tomblanch118/DAB/internal/streaming"
	"github.com/urfave/cli"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"gopkg.in/yaml.v3"
)

var version string

func init() {
	if version == "" {
		version = "unknown"
	}
}

var addrFlag = cli.StringFlag{
	Name:  "addr, a",
	Usage: `gRPC address of the controller`,
	Value: "localhost:50051",
}

var tablesCmd = cli.Command{
	Name:    "tables",
	Aliases: []string{"t"},
	Usage:   "Prints the beep, mask, operator and keypad tables",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "json, j",
			Usage: `Print as JSON`,
		},
		cli.BoolFlag{
			Name:  "yaml, y",
			Usage: `Print as YAML`,
		},
	},
	Action: func(ctx *cli.Context) error {
		t := defuse.Snapshot()
		switch {
		case ctx.Bool("json"):
			return printJSON(os.Stdout, t)
		case ctx.Bool("yaml"):
			out, err := yaml.Marshal(t)
			if err != nil {
				return cli.NewExitError(err, 1)
			}
			fmt.Print(string(out))
			return nil
		default:
			writeTables(os.Stdout, t)
			return nil
		}
	},
}

var checkCmd = cli.Command{
	Name:  "check",
	Usage: "Verifies the table invariants",
	Action: func(ctx *cli.Context) error {
		if err := defuse.Check(); err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Println("tables ok")
		return nil
	},
}

var roundCmd = cli.Command{
	Name:      "round",
	Aliases:   []string{"r"},
	Usage:     "Validates a round file and shows its solution",
	ArgsUsage: "<filename>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			cli.ShowCommandHelp(ctx, "round")
			os.Exit(1)
		}
		loader, err := rounds.NewLoader(nil)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		r, err := loader.LoadFile(ctx.Args().First())
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		seq := r.Sequence()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "name\t%s\n", r.Name)
		fmt.Fprintf(w, "countdown\t%s\n", r.Countdown())
		fmt.Fprintf(w, "beep mode\t%s\n", r.BeepMode)
		fmt.Fprintf(w, "sequence\t%s %s %s\n", seq[0], seq[1], seq[2])
		fmt.Fprintf(w, "switches\t0x%02X (%08b)\n", r.Expected(), r.Expected())
		fmt.Fprintf(w, "defuse key\t%c\n", r.DefuseKey())
		return w.Flush()
	},
}

var hashPasswordCmd = cli.Command{
	Name:      "hash-password",
	Usage:     "Hashes a game master password for auth.gamemaster_password_hash",
	ArgsUsage: "<password>",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() < 1 {
			cli.ShowCommandHelp(ctx, "hash-password")
			os.Exit(1)
		}
		hash, err := auth.NewPasswordHasher().HashPassword(ctx.Args().First())
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Println(hash)
		return nil
	},
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "Shows the state of a running controller",
	Flags: []cli.Flag{addrFlag},
	Action: func(ctx *cli.Context) error {
		conn, err := dial(ctx.String("addr"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer conn.Close()

		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		st, err := streaming.NewClient(conn).GetStatus(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return printJSON(os.Stdout, st)
	},
}

var watchCmd = cli.Command{
	Name:    "watch",
	Aliases: []string{"w"},
	Usage:   "Prints game events as they happen",
	Flags:   []cli.Flag{addrFlag},
	Action: func(ctx *cli.Context) error {
		conn, err := dial(ctx.String("addr"))
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer conn.Close()

		c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(os.Stdout)
		err = streaming.NewClient(conn).StreamEvents(c, func(ev map[string]interface{}) error {
			return enc.Encode(ev)
		})
		if err != nil && c.Err() == nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	},
}

func dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func printJSON(w io.Writer, v interface{}) error {
	j, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(w, string(j))
	return nil
}

func writeTables(out io.Writer, t defuse.Tables) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "BEEPS\tinterval\tdefuse key")
	for _, b := range t.Beeps {
		fmt.Fprintf(w, "%d\t%d\t%s\n", b.Index, b.Interval, b.DefuseKey)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "MASKS\tcolor\tmask")
	for _, m := range t.Masks {
		fmt.Fprintf(w, "%d\t%s\t%s\n", m.Index, m.Hex, m.Mask)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OPS\tcolor\top")
	for _, o := range t.Ops {
		fmt.Fprintf(w, "%d\t%s\t%s\n", o.Index, o.Hex, o.Op)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "KEYPAD")
	for _, row := range t.Keypad {
		fmt.Fprintf(w, "%s\n", row)
	}

	w.Flush()
}

func main() {
	app := cli.NewApp()
	app.Name = "defusectl"
	app.Version = version
	app.Usage = "Inspects the defuse tables and talks to a running controller"
	app.HelpName = "defusectl"

	app.Commands = []cli.Command{
		tablesCmd,
		checkCmd,
		roundCmd,
		hashPasswordCmd,
		statusCmd,
		watchCmd,
	}

	app.Action = func(ctx *cli.Context) error {
		cli.ShowAppHelp(ctx)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
