package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridcraft/pkg/store"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage saved documents",
	}

	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotShowCommand())
	cmd.AddCommand(c.snapshotImportCommand())
	cmd.AddCommand(c.snapshotExportCommand())
	cmd.AddCommand(c.snapshotRemoveCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved snapshots, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				snaps, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					printInfo("No snapshots yet")
					printNextStep("Save one from the editor with 's' or import markup", appName+" snapshot import page.html")
					return nil
				}
				fmt.Println(snapshotTable(snaps, time.Now()))
				return nil
			})
		},
	}
}

func (c *CLI) snapshotShowCommand() *cobra.Command {
	var showMarkup bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a snapshot's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				snap, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if showMarkup {
					fmt.Println(snap.Markup)
					return nil
				}
				fmt.Println(StyleTitle.Render(snap.Name))
				printKeyValue("ID", snap.ID)
				printKeyValue("Grid", fmt.Sprintf("%dx%d", snap.XCells, snap.YCells))
				printKeyValue("Markup", formatBytes(len(snap.Markup)))
				printKeyValue("Created", snap.CreatedAt.Local().Format(time.DateTime))
				printKeyValue("Updated", snap.UpdatedAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showMarkup, "markup", false, "print the stored markup only")
	return cmd
}

func (c *CLI) snapshotImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <markup-file|->",
		Short: "Save an exported fragment as a new snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			html, err := readMarkup(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = snapshotName(args[0])
			}

			sessions, st, err := c.openSessions(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := sessions.Import(html)
			if err != nil {
				return err
			}
			snap, err := sessions.Save(ctx, doc.ID, name)
			if err != nil {
				return err
			}
			printSuccess("Imported %s", StyleHighlight.Render(snap.Name))
			printDetail("ID: %s", snap.ID)
			printNextStep("Open it in the editor", appName+" edit --snapshot "+snap.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name (default: file name)")
	return cmd
}

func (c *CLI) snapshotExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a snapshot's markup to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				snap, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					fmt.Println(snap.Markup)
					return nil
				}
				if err := os.WriteFile(output, []byte(snap.Markup+"\n"), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				printSuccess("Exported %s", StyleHighlight.Render(snap.Name))
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) snapshotRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete snapshots",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				for _, id := range args {
					if err := st.Delete(cmd.Context(), id); err != nil {
						return err
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

// snapshotName derives a snapshot name from a file path.
func snapshotName(path string) string {
	if path == "-" {
		return "untitled"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
