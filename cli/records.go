// ABOUTME: Record CLI commands
// ABOUTME: List, add, update, upsert and remove records in any collection
package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joalcobiz/mylifeos/app"
	"github.com/joalcobiz/mylifeos/models"
	"github.com/joalcobiz/mylifeos/sharing"
	"github.com/joalcobiz/mylifeos/store"
)

// output is where commands print. Tests swap it.
var output io.Writer = os.Stdout

// fieldFlags collects repeated --set key=value pairs.
type fieldFlags models.Fields

func (f fieldFlags) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Set parses key=value. Values that parse as JSON (numbers, booleans, arrays,
// objects, quoted strings) keep their type; anything else is a string.
func (f fieldFlags) Set(s string) error {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	f[key] = v
	return nil
}

// sharingFlags registers the flags that set sharing columns.
func sharingFlags(fs *flag.FlagSet, fields fieldFlags) (shared *bool, shareWith, assign *string) {
	fs.Var(fields, "set", "Field as key=value (repeatable)")
	shared = fs.Bool("shared", false, "Share with everyone")
	shareWith = fs.String("share-with", "", "Comma-separated uids to share with")
	assign = fs.String("assign", "", "Assign to uid")
	return shared, shareWith, assign
}

func applySharing(fs *flag.FlagSet, fields fieldFlags, shared *bool, shareWith, assign *string) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shared":
			fields[models.KeyIsShared] = *shared
		case "share-with":
			var uids []interface{}
			for _, uid := range strings.Split(*shareWith, ",") {
				if uid = strings.TrimSpace(uid); uid != "" {
					uids = append(uids, uid)
				}
			}
			fields[models.KeySharedWith] = uids
		case "assign":
			fields[models.KeyAssignedTo] = *assign
		}
	})
}

// waitLoaded gives the live query a moment to deliver its first snapshot.
func waitLoaded(c *store.Collection, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for c.Loading() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}

// ListCommand lists the visible records of a collection.
func ListCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	mode := fs.String("mode", "", "Sharing mode: all, mine, shared, assigned (default: module preference)")
	limit := fs.Int("limit", 50, "Maximum results")
	asJSON := fs.Bool("json", false, "Print JSON")
	wait := fs.Duration("wait", 2*time.Second, "How long to wait for the first remote snapshot")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: list [flags] <collection>")
	}
	name := fs.Arg(0)

	c, err := a.Collection(name)
	if err != nil {
		return err
	}
	waitLoaded(c, *wait)

	acc, err := a.Accessor(name)
	if err != nil {
		return err
	}
	items := acc.Items()
	effective := acc.Mode()
	if *mode != "" {
		m, err := models.ParseSharingMode(*mode)
		if err != nil {
			return err
		}
		items, effective = acc.ItemsIn(m), m
	}
	if *limit > 0 && len(items) > *limit {
		items = items[:*limit]
	}

	if *asJSON {
		enc := json.NewEncoder(output)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		_, _ = fmt.Fprintf(output, "No %s records visible in %s mode\n", name, effective)
		return nil
	}

	labels := acc.ShowOwnerLabels()
	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TITLE\tOWNER\tSHARING\tSTATE\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-------\t-----\t--")
	for _, it := range items {
		owner := "-"
		if labels {
			owner = it.OwnerDisplayName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.Title(), owner, sharing.Channel(it.Record, c.Viewer().UID), c.StateOf(it.ID), it.ID)
	}
	_ = w.Flush()

	stats := acc.Stats()
	_, _ = fmt.Fprintf(output, "\n%s mode · all %d · mine %d · shared %d · assigned %d\n",
		effective, stats.Total, stats.Mine, stats.Shared, stats.Assigned)
	return nil
}

// AddCommand adds a record.
func AddCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	fields := fieldFlags{}
	shared, shareWith, assign := sharingFlags(fs, fields)
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: add [--set key=value]... <collection>")
	}
	applySharing(fs, fields, shared, shareWith, assign)
	if len(fields) == 0 {
		return fmt.Errorf("at least one --set key=value is required")
	}

	c, err := a.Collection(fs.Arg(0))
	if err != nil {
		return err
	}
	if !c.Viewer().Authenticated() {
		return fmt.Errorf("no viewer configured: set user_id in %s or MYLIFEOS_USER_ID", configHint())
	}

	rec := c.Add(models.Fields(fields))
	_, _ = fmt.Fprintf(output, "✓ Added to %s: %s (ID: %s)\n", c.Name(), rec.Title(), rec.ID)
	return nil
}

// UpdateCommand merges fields into a record.
func UpdateCommand(a *app.App, args []string) error {
	return patchCommand(a, "update", args, false)
}

// UpsertCommand merges fields into a record, creating it at the given id.
func UpsertCommand(a *app.App, args []string) error {
	return patchCommand(a, "upsert", args, true)
}

func patchCommand(a *app.App, name string, args []string, upsert bool) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fields := fieldFlags{}
	shared, shareWith, assign := sharingFlags(fs, fields)
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: %s [--set key=value]... <collection> <id>", name)
	}
	applySharing(fs, fields, shared, shareWith, assign)
	if len(fields) == 0 {
		return fmt.Errorf("at least one --set key=value is required")
	}

	c, err := a.Collection(fs.Arg(0))
	if err != nil {
		return err
	}
	waitLoaded(c, 2*time.Second)
	id := fs.Arg(1)
	if !upsert {
		if _, ok := c.Lookup(id); !ok {
			_, _ = fmt.Fprintf(output, "warning: %s not in local cache, it will be created at that id\n", id)
		}
	}

	if upsert {
		c.Upsert(id, models.Fields(fields))
	} else {
		c.Update(id, models.Fields(fields))
	}
	verb := "Updated"
	if upsert {
		verb = "Upserted"
	}
	_, _ = fmt.Fprintf(output, "✓ %s %s in %s\n", verb, id, c.Name())
	return nil
}

// RemoveCommand deletes a record.
func RemoveCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: remove <collection> <id>")
	}
	c, err := a.Collection(fs.Arg(0))
	if err != nil {
		return err
	}
	waitLoaded(c, 2*time.Second)
	id := fs.Arg(1)
	if _, ok := c.Lookup(id); !ok {
		return fmt.Errorf("record not found: %s", id)
	}

	c.Remove(id)
	_, _ = fmt.Fprintf(output, "✓ Removed %s from %s\n", id, c.Name())
	return nil
}
