package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcraft/internal/session"
	"github.com/matzehuels/gridcraft/pkg/config"
	"github.com/matzehuels/gridcraft/pkg/designer"
	"github.com/matzehuels/gridcraft/pkg/workspace"
)

// editOpts holds the command-line flags for the edit command.
type editOpts struct {
	snapshot string // snapshot ID to open
	name     string // snapshot name used by save
	xCells   int    // grid columns for a new document
	yCells   int    // grid rows for a new document
}

// editCommand creates the interactive terminal editor command.
func (c *CLI) editCommand() *cobra.Command {
	var opts editOpts

	cmd := &cobra.Command{
		Use:   "edit [markup-file]",
		Short: "Edit a grid layout in the terminal",
		Long: `Open the interactive editor.

Drag with the mouse to draw a cell, click a cell to select it. Keys:

  n new document     u undo     r redo
  x remove           ] front    [ back
  f font             t text     i background image
  s save snapshot    w write markup file    q quit

With a markup file, the file is imported on start (if it exists) and 'w'
writes the document back to it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return c.runEdit(cmd.Context(), file, opts)
		},
	}

	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "open a saved snapshot")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "snapshot name used by save")
	cmd.Flags().IntVar(&opts.xCells, "cols", 0, "grid columns of a new document (default from config)")
	cmd.Flags().IntVar(&opts.yCells, "rows", 0, "grid rows of a new document (default from config)")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, file string, opts editOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	sessions, st, err := c.openSessions(ctx, cfg, designer.WithWorkspaceOptions(
		workspace.WithSurface(workspace.TerminalSurface),
		workspace.WithCellSize(workspace.TerminalCellColumns),
	))
	if err != nil {
		return err
	}
	defer st.Close()

	doc, name, err := c.openDocument(ctx, sessions, cfg, file, opts)
	if err != nil {
		return err
	}

	model := NewEditorModel(ctx, sessions, doc, designer.Prompts{
		Font:            cfg.Prompts.Font,
		Text:            cfg.Prompts.Text,
		BackgroundImage: cfg.Prompts.BackgroundImage,
	})
	model.Name = name
	model.File = file

	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("editor: %w", err)
	}

	if m, ok := final.(EditorModel); ok {
		if id := m.doc.SnapshotID(); id != "" {
			printInfo("Snapshot %s", StyleHighlight.Render(id))
			printNextStep("Render it", appName+" snapshot export "+id+" | "+appName+" render - -o grid.png")
		}
	}
	return nil
}

// openDocument resolves the starting document: a snapshot, an existing
// markup file, or an empty grid.
func (c *CLI) openDocument(ctx context.Context, sessions *session.Manager, cfg config.Config, file string, opts editOpts) (*session.Document, string, error) {
	name := opts.name

	if opts.snapshot != "" {
		doc, err := sessions.Load(ctx, opts.snapshot)
		if err != nil {
			return nil, "", err
		}
		if name == "" {
			if snap, err := sessions.Store().Get(ctx, opts.snapshot); err == nil {
				name = snap.Name
			}
		}
		return doc, name, nil
	}

	if name == "" {
		name = "untitled"
		if file != "" {
			name = snapshotName(file)
		}
	}

	if file != "" {
		html, err := readMarkup(file)
		switch {
		case err == nil:
			doc, err := sessions.Import(html)
			return doc, name, err
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", err
		}
	}

	xCells, yCells := cfg.Grid.XCells, cfg.Grid.YCells
	if opts.xCells > 0 {
		xCells = opts.xCells
	}
	if opts.yCells > 0 {
		yCells = opts.yCells
	}
	doc, err := sessions.Create(xCells, yCells)
	return doc, name, err
}
