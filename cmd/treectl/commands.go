package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kinfolk/kinfolk/internal/document"
	"github.com/kinfolk/kinfolk/internal/engine"
	"github.com/kinfolk/kinfolk/internal/scene"
)

// maxFileBytes matches the server's default document limit.
const maxFileBytes = 5 << 20

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "treectl",
		Short:        "Inspect and validate family-tree documents",
		SilenceUsage: true,
	}

	var asJSON bool
	inspect := &cobra.Command{
		Use:   "inspect FILE",
		Short: "List persons, derived connections and dangling references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := inspectFile(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			rep.print(cmd.OutOrStdout())
			return nil
		},
	}
	inspect.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	validate := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check that documents load; exits non-zero on the first bad file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				t, err := readFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d persons)\n", path, len(t.Persons))
			}
			return nil
		},
	}

	root.AddCommand(inspect, validate)
	return root
}

func readFile(path string) (document.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.Tree{}, err
	}
	defer f.Close()
	return document.Read(f, maxFileBytes)
}

type personRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Mother string `json:"motherId,omitempty"`
	Father string `json:"fatherId,omitempty"`
	Spouse string `json:"spouseId,omitempty"`
}

type danglingRef struct {
	Person string `json:"person"`
	Role   string `json:"role"`
	Target string `json:"target"`
}

type report struct {
	Persons     []personRow        `json:"persons"`
	Connections []scene.Connection `json:"connections"`
	Dangling    []danglingRef      `json:"dangling"`
	LineOnly    int                `json:"lineOnly"`
	Hidden      int                `json:"hidden"`
	NextID      int                `json:"nextId"`
}

func inspectFile(path string) (*report, error) {
	t, err := readFile(path)
	if err != nil {
		return nil, err
	}
	eng := engine.New(engine.DefaultOptions())
	if err := eng.LoadTree(t); err != nil {
		return nil, err
	}

	rep := &report{
		Persons:     []personRow{},
		Connections: eng.Connections(),
		Dangling:    []danglingRef{},
		LineOnly:    len(t.LineOnly),
		Hidden:      len(t.Hidden),
		NextID:      t.NextID,
	}
	for _, p := range eng.Persons() {
		rep.Persons = append(rep.Persons, personRow{
			ID:     p.ID,
			Name:   eng.DisplayName(p.ID),
			Gender: string(p.Gender),
			Mother: p.MotherID,
			Father: p.FatherID,
			Spouse: p.SpouseID,
		})
		for _, ref := range []struct {
			role scene.Role
			id   string
		}{
			{scene.RoleMother, p.MotherID},
			{scene.RoleFather, p.FatherID},
			{scene.RoleSpouse, p.SpouseID},
		} {
			if ref.id == "" {
				continue
			}
			if _, ok := eng.GetPerson(ref.id); !ok {
				rep.Dangling = append(rep.Dangling, danglingRef{Person: p.ID, Role: string(ref.role), Target: ref.id})
			}
		}
	}
	return rep, nil
}

func (r *report) print(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGENDER\tMOTHER\tFATHER\tSPOUSE")
	for _, p := range r.Persons {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Gender, dash(p.Mother), dash(p.Father), dash(p.Spouse))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d connections (%d line-only entries, %d hidden)\n", len(r.Connections), r.LineOnly, r.Hidden)
	for _, c := range r.Connections {
		fmt.Fprintf(out, "  %-9s %s -> %s\n", c.Kind, c.From, c.To)
	}
	if len(r.Dangling) > 0 {
		fmt.Fprintf(out, "\n%d dangling references\n", len(r.Dangling))
		for _, d := range r.Dangling {
			fmt.Fprintf(out, "  %s.%s -> %s (missing)\n", d.Person, d.Role, d.Target)
		}
	}
	fmt.Fprintf(out, "\nnext id: person_%d\n", r.NextID)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
