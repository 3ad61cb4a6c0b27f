package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scriptbench/internal/buffer"
	"scriptbench/internal/engine"
	"scriptbench/internal/model"
	"scriptbench/internal/resource"
	"scriptbench/internal/tree"
)

func newLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [url]",
		Short: "List a folder (default: the top level)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			if isRoot(s, url) {
				if err := s.run(s.e.LoadScripts()); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, entriesOf(s.e.Tree().Top()))
			}

			if err := s.reveal(url); err != nil {
				return writeErr(cmd, err)
			}
			n := s.e.Tree().Find(url)
			if n == nil {
				return writeErr(cmd, errNotFound("resource", url))
			}
			if !n.IsContainer() {
				return writeOut(cmd, app, []model.Entry{entryOf(n)})
			}
			return writeOut(cmd, app, entriesOf(n.Children))
		},
	}
}

// treeEntry is a listed resource with its listed children.
type treeEntry struct {
	model.Entry
	Children []treeEntry `json:"children,omitempty"`
}

type treeOutput []treeEntry

func (t treeOutput) Text() string {
	var sb strings.Builder
	var walk func(es []treeEntry, depth int)
	walk = func(es []treeEntry, depth int) {
		for _, e := range es {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString(e.Name)
			if e.Kind.IsContainer() {
				sb.WriteByte('/')
			}
			sb.WriteByte('\n')
			walk(e.Children, depth+1)
		}
	}
	walk(t, 0)
	return sb.String()
}

func treeOf(nodes []*tree.Node) treeOutput {
	out := make(treeOutput, 0, len(nodes))
	for _, n := range nodes {
		te := treeEntry{Entry: entryOf(n)}
		if n.IsContainer() && n.Toggled {
			te.Children = treeOf(n.Children)
		}
		out = append(out, te)
	}
	return out
}

func newTreeCmd(app *App) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [url]",
		Short: "List every folder recursively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			// Folders that fail to list are left collapsed; the rest is still printed.
			_ = s.run(s.e.ExpandAll(depth))
			t := s.e.Tree()
			if !t.Loaded() {
				if f := s.e.State().Failure; f != nil {
					return writeErr(cmd, *f)
				}
			}
			nodes := t.Top()
			if len(args) == 1 && !isRoot(s, args[0]) {
				n := t.Find(args[0])
				if n == nil {
					return writeErr(cmd, errNotFound("resource", args[0]))
				}
				nodes = []*tree.Node{n}
			}
			var hints []string
			if f := s.e.State().Failure; f != nil {
				hints = append(hints, f.Error())
			}
			return writeOut(cmd, app, treeOf(nodes), hints...)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Levels below the top level to expand (0: all)")
	return cmd
}

func newCatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <url>",
		Short: "Print a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			ent, err := s.open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ent)
		},
	}
}

// open reveals url and returns the script as read into the buffer.
func (s *session) open(url string) (model.Entity, error) {
	if err := s.reveal(url); err != nil {
		return model.Entity{}, err
	}
	n := s.e.Tree().Find(url)
	if n == nil {
		return model.Entity{}, errNotFound("script", url)
	}
	if n.IsContainer() {
		return model.Entity{}, fmt.Errorf("%s: %w", url, engine.ErrNotLeaf)
	}
	b := s.e.Buffer()
	if b.Resource != url || b.Status != buffer.StatusIdle {
		return model.Entity{}, errNotFound("script", url)
	}
	return model.Entity{URL: url, Name: n.Name, Kind: model.KindScript, Value: b.Content}, nil
}

func newSaveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <url> [file|-]",
		Short: "Replace the text of a script (from a file, or stdin)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[1:])
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := s.open(args[0]); err != nil {
				return writeErr(cmd, err)
			}
			ent, err := s.save(text)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ent)
		},
	}
}

// save writes text into the open buffer and stores it.
func (s *session) save(text string) (model.Entity, error) {
	if err := s.e.ChangeContent(text); err != nil {
		return model.Entity{}, err
	}
	save, err := s.e.Save()
	if err != nil {
		return model.Entity{}, err
	}
	if err := s.run(save); err != nil {
		return model.Entity{}, err
	}
	b := s.e.Buffer()
	return model.Entity{URL: b.Resource, Name: resource.NameOf(b.Resource), Kind: model.KindScript, Value: b.Content}, nil
}

func newNewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "new <folder-url> <name> [file|-]",
		Short: "Create a script in a folder (the root url for the top level)",
		Long: strings.TrimSpace(`
Create a script in a folder. The name is made unique within the folder by
adding -2, -3, ... before the extension; the stored url is printed.
`),
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[2:])
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			sibling, err := s.anchorIn(args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := s.e.NewScript(sibling, args[1], text); err != nil {
				return writeErr(cmd, err)
			}
			ent, err := s.save(text)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ent)
		},
	}
}

// anchorIn returns a sibling url that places a new resource named name in folder:
// its last listed child, or, for an empty folder, the url the resource would get.
func (s *session) anchorIn(folder, name string) (string, error) {
	if isRoot(s, folder) {
		if err := s.run(s.e.LoadScripts()); err != nil {
			return "", err
		}
		top := s.e.Tree().Top()
		if len(top) == 0 {
			return "", nil
		}
		return top[len(top)-1].URL, nil
	}
	if err := s.reveal(folder); err != nil {
		return "", err
	}
	n := s.e.Tree().Find(folder)
	if n == nil {
		return "", errNotFound("folder", folder)
	}
	if !n.IsContainer() {
		return "", fmt.Errorf("%s is not a folder", folder)
	}
	if len(n.Children) > 0 {
		return n.Children[len(n.Children)-1].URL, nil
	}
	return resource.ChildURL(folder, name), nil
}

func newCpCmd(app *App) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "cp <url>",
		Short: "Duplicate a script next to itself",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			src, err := s.open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dup, err := s.e.Duplicate(src.URL)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.run(dup); err != nil {
				return writeErr(cmd, err)
			}
			if name = strings.TrimSpace(name); name != "" {
				if _, err := s.e.Rename(s.e.Buffer().Resource, name); err != nil {
					return writeErr(cmd, err)
				}
			}
			ent, err := s.save(s.e.Buffer().Content)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, ent)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the copy (default: <name>-copy.<ext>)")
	return cmd
}

func newMvCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <url> <new-name>",
		Short: "Rename a script or folder in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := s.locate(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rename, err := s.e.Rename(n.URL, args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.run(rename); err != nil {
				return writeErr(cmd, err)
			}
			// The node keeps its id across the rename.
			moved := s.e.Tree().Node(n.ID)
			if moved == nil {
				return writeErr(cmd, errNotFound("resource", args[0]))
			}
			return writeOut(cmd, app, entryOf(moved))
		},
	}
}

// locate lists the folders holding url without opening url itself.
func (s *session) locate(url string) (*tree.Node, error) {
	if err := s.reveal(resource.ParentURL(url)); err != nil {
		return nil, err
	}
	n := s.e.Tree().Find(url)
	if n == nil {
		return nil, errNotFound("resource", url)
	}
	return n, nil
}

type deleteResult struct {
	Deleted string `json:"deleted"`
}

func newRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "rm <url>",
		Short: "Delete a script, or a folder with everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c engine.Confirmer = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				c = engine.AlwaysConfirm
			}
			s, err := app.session(cmd, c)
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := s.locate(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			confirm, err := s.e.RequestDelete(n.URL)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.run(askCmd(confirm)); err != nil {
				return writeErr(cmd, err)
			}
			if s.e.Tree().Find(n.URL) != nil {
				return writeErr(cmd, errAborted)
			}
			return writeOut(cmd, app, deleteResult{Deleted: n.URL})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newMkdirCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <folder-url> <name>",
		Short: "Create a folder in a folder (the root url for the top level)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			sibling, err := s.anchorIn(args[0], args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			create, err := s.e.CreateFolder(sibling, args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.run(create); err != nil {
				return writeErr(cmd, err)
			}
			u := resource.ChildURL(parentOf(s, sibling), args[1])
			return writeOut(cmd, app, model.Entry{URL: u, Name: strings.TrimSpace(args[1]), Kind: model.KindFolder})
		},
	}
}

func askCmd(c *engine.Confirmation) tea.Cmd {
	return func() tea.Msg { return engine.ConfirmMsg{Confirmation: c} }
}

func isRoot(s *session, url string) bool {
	return url == "" || url == "/" || strings.TrimRight(url, "/") == s.e.Client().RootURL()
}

func parentOf(s *session, sibling string) string {
	if sibling == "" {
		return s.e.Client().RootURL()
	}
	return resource.ParentURL(sibling)
}

func entryOf(n *tree.Node) model.Entry {
	return model.Entry{URL: n.URL, Name: n.Name, Kind: n.Kind}
}

func entriesOf(nodes []*tree.Node) []model.Entry {
	out := make([]model.Entry, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entryOf(n))
	}
	return out
}

// readInput reads the file named by args[0], or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// promptConfirmer asks on w and reads a y/N answer from r.
func promptConfirmer(r io.Reader, w io.Writer) engine.Confirmer {
	br := bufio.NewReader(r)
	return engine.ConfirmFunc(func(ctx context.Context, c *engine.Confirmation) (bool, error) {
		fmt.Fprintf(w, "%s %s [y/N] ", c.Message, c.Supporting)
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	})
}
