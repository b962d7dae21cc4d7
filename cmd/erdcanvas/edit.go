package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/formatter"
	"github.com/tordrt/erdcanvas/internal/schema"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the saved schema interactively",
	Long: `Edit reads one command per line from stdin. Type "help" for the command list.
Destructive commands ask for confirmation on the next line.`,
	RunE: runEdit,
}

const replHelp = `Commands:
  tables                              list tables
  show TABLE                          show a table
  add-table                           add a table
  rename OLD NEW                      rename a table
  delete                              delete the selected table
  clear                               delete every table
  add-column TABLE                    add a column
  set-column TABLE INDEX NAME TYPE [TAG,TAG...]
  del-column TABLE INDEX              delete a column
  pk TABLE COLUMN                     toggle primary key membership
  tag TABLE COLUMN TAG                toggle a constraint tag
  add-rel TABLE [FK TABLE COLUMN [TYPE]]
  del-rel TABLE INDEX                 delete a relationship
  select [TABLE]                      select a table, or clear the selection
  down X Y | move X Y | up            pointer events in canvas coordinates
  key [ctrl+|meta+]NAME               key press, e.g. ctrl+z or Delete
  undo | redo | save | load
  sql                                 print the SQL export
  quit
`

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	r := newREPL(cmd.InOrStdin(), cmd.OutOrStdout())
	sess, _, err := openSession(ctx, editor.Options{Confirm: r.confirm, Notify: r.notify})
	if err != nil {
		return err
	}
	defer closeSession(sess)

	r.ed = sess.Editor
	return r.run(ctx)
}

// repl drives an editor from line commands
type repl struct {
	ed  *editor.Editor
	in  *bufio.Scanner
	out io.Writer
}

func newREPL(in io.Reader, out io.Writer) *repl {
	return &repl{in: bufio.NewScanner(in), out: out}
}

func (r *repl) confirm(message string) bool {
	_, _ = fmt.Fprintf(r.out, "%s [y/N] ", message)
	if !r.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(r.in.Text()))
	return answer == "y" || answer == "yes"
}

func (r *repl) notify(message string) {
	_, _ = fmt.Fprintln(r.out, message)
}

func (r *repl) run(ctx context.Context) error {
	_, _ = fmt.Fprint(r.out, "> ")
	for r.in.Scan() {
		quit, err := r.exec(ctx, r.in.Text())
		if err != nil {
			_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		_, _ = fmt.Fprint(r.out, "> ")
	}
	return r.in.Err()
}

// exec runs one command line. It reports true when the session should end.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		_, _ = fmt.Fprint(r.out, replHelp)
	case "tables":
		for _, t := range r.ed.Schema().TableNames() {
			marker := " "
			if t == r.ed.Selected() {
				marker = "*"
			}
			_, _ = fmt.Fprintf(r.out, "%s %s\n", marker, t)
		}
	case "show":
		if err := need(args, 1); err != nil {
			return false, err
		}
		t := r.ed.Schema().Table(args[0])
		if t == nil {
			return false, fmt.Errorf("%w: %s", schema.ErrTableNotFound, args[0])
		}
		return false, formatter.NewTextFormatter(r.out).Format(&schema.Schema{Tables: []schema.Table{*t}})
	case "add-table":
		_, _ = fmt.Fprintln(r.out, r.ed.AddTable())
	case "rename":
		if err := need(args, 2); err != nil {
			return false, err
		}
		return false, r.ed.RenameTable(args[0], args[1])
	case "delete":
		if r.ed.Selected() == "" {
			return false, fmt.Errorf("no table selected")
		}
		r.ed.DeleteSelectedTable()
	case "clear":
		r.ed.ClearSchema()
	case "add-column":
		if err := need(args, 1); err != nil {
			return false, err
		}
		col, err := r.ed.AddColumn(args[0])
		if err == nil {
			_, _ = fmt.Fprintln(r.out, col)
		}
		return false, err
	case "set-column":
		if err := need(args, 4); err != nil {
			return false, err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("invalid index: %s", args[1])
		}
		return false, r.ed.UpdateColumn(args[0], index, parseColumn(args[2], args[3], args[4:]))
	case "del-column":
		if err := need(args, 2); err != nil {
			return false, err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("invalid index: %s", args[1])
		}
		return false, r.ed.DeleteColumn(args[0], index)
	case "pk":
		if err := need(args, 2); err != nil {
			return false, err
		}
		return false, r.ed.TogglePrimaryKey(args[0], args[1])
	case "tag":
		if err := need(args, 3); err != nil {
			return false, err
		}
		tag := schema.Constraint(strings.ToUpper(strings.Join(args[2:], " ")))
		return false, r.ed.ToggleConstraint(args[0], args[1], tag)
	case "add-rel":
		return false, r.addRelationship(args)
	case "del-rel":
		if err := need(args, 2); err != nil {
			return false, err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return false, fmt.Errorf("invalid index: %s", args[1])
		}
		return false, r.ed.DeleteRelationship(args[0], index)
	case "select":
		table := ""
		if len(args) > 0 {
			table = args[0]
		}
		return false, r.ed.Select(table)
	case "down", "move":
		if err := need(args, 2); err != nil {
			return false, err
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return false, fmt.Errorf("invalid coordinates: %s %s", args[0], args[1])
		}
		if name == "down" {
			r.ed.PointerDown(x, y)
		} else {
			r.ed.PointerMove(x, y)
		}
	case "up":
		r.ed.PointerUp()
	case "key":
		if err := need(args, 1); err != nil {
			return false, err
		}
		if !r.ed.KeyDown(ctx, parseKey(args[0])) {
			return false, fmt.Errorf("key not bound: %s", args[0])
		}
	case "undo":
		if !r.ed.Undo() {
			return false, fmt.Errorf("nothing to undo")
		}
	case "redo":
		if !r.ed.Redo() {
			return false, fmt.Errorf("nothing to redo")
		}
	case "save":
		if err := r.ed.Save(ctx); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(r.out, "Schema saved!")
	case "load":
		loaded, err := r.ed.Load(ctx)
		if err != nil {
			return false, err
		}
		if !loaded {
			_, _ = fmt.Fprintln(r.out, "No saved schema")
		}
	case "sql":
		return false, formatter.NewSQLFormatter(r.out).Format(r.ed.Schema())
	default:
		return false, fmt.Errorf("unknown command: %s (type help)", name)
	}
	return false, nil
}

func (r *repl) addRelationship(args []string) error {
	if err := need(args, 1); err != nil {
		return err
	}
	if len(args) == 1 {
		rel, err := r.ed.AddDefaultRelationship(args[0])
		if err == nil {
			_, _ = fmt.Fprintf(r.out, "%s → %s.%s\n", rel.ForeignKey, rel.ReferencesTable, rel.ReferencesColumn)
		}
		return err
	}
	if err := need(args, 4); err != nil {
		return err
	}
	rel := schema.Relationship{
		Type:             schema.ManyToOne,
		ForeignKey:       args[1],
		ReferencesTable:  args[2],
		ReferencesColumn: args[3],
		OnDelete:         schema.Cascade,
		OnUpdate:         schema.Cascade,
	}
	if len(args) > 4 {
		rel.Type = schema.RelationshipType(strings.ToUpper(args[4]))
	}
	return r.ed.AddRelationship(args[0], rel)
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

// parseColumn builds a column from "NAME TYPE [TAG,TAG...]"; tags may contain
// spaces, as in NOT NULL
func parseColumn(name, colType string, rest []string) schema.Column {
	col := schema.Column{Name: name, Type: strings.ToUpper(colType)}
	for _, tag := range strings.Split(strings.Join(rest, " "), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			col.Constraints = append(col.Constraints, schema.Constraint(strings.ToUpper(tag)))
		}
	}
	return col
}

// parseKey reads "ctrl+z", "meta+s" or a bare key name
func parseKey(s string) editor.Key {
	var k editor.Key
	for {
		lower := strings.ToLower(s)
		switch {
		case strings.HasPrefix(lower, "ctrl+"):
			k.Ctrl = true
			s = s[len("ctrl+"):]
		case strings.HasPrefix(lower, "meta+"), strings.HasPrefix(lower, "cmd+"):
			k.Meta = true
			s = s[strings.Index(s, "+")+1:]
		default:
			k.Name = s
			return k
		}
	}
}
