package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Veraticus/grantlens/internal/cli"
	"github.com/Veraticus/grantlens/internal/common"
	"github.com/Veraticus/grantlens/internal/storage"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage storage checkpoints",
		Long: `Create, list, restore, and delete snapshots of the grant store.

'grantlens clean' takes an automatic checkpoint before replacing a saved
dataset; the five most recent automatic checkpoints are kept. Checkpoints
need storage.path to point at a file.`,
		Example: `  # Snapshot the current dataset
  grantlens checkpoint create --tag "fy2023-extract"

  # List all checkpoints
  grantlens checkpoint list

  # Go back to an earlier dataset
  grantlens checkpoint restore fy2023-extract`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

// withCheckpoints opens the configured store and hands its checkpoint
// manager to fn. The store is closed afterwards unless fn restored over it.
func withCheckpoints(ctx context.Context, fn func(*storage.CheckpointManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoragePath == storage.MemoryPath {
		return common.NewUserError("Set storage.path to a file to use checkpoints", storage.ErrCheckpointUnsupported)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Debug("Storage already closed", "error", closeErr)
		}
	}()

	manager, err := store.Checkpoints()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	return fn(manager)
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Create(ctx, tag, description)
				if err != nil {
					return fmt.Errorf("failed to create checkpoint: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created checkpoint %s (%s, %s grants, %s awards)",
					info.ID, humanize.Bytes(uint64(info.FileSize)), cli.Count(info.Grants), cli.Count(info.Awards))))
				if info.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "checkpoint name (generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				checkpoints, err := manager.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list checkpoints: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(checkpoints) == 0 {
					fmt.Fprintln(out, cli.FormatInfo("No checkpoints found."))
					return nil
				}

				rows := make([][]string, 0, len(checkpoints))
				for _, cp := range checkpoints {
					kind := "manual"
					if cp.IsAuto {
						kind = "auto"
					}
					rows = append(rows, []string{
						cp.ID,
						humanize.Time(cp.CreatedAt),
						humanize.Bytes(uint64(cp.FileSize)),
						cli.Count(cp.Grants),
						cli.Count(cp.Awards),
						cp.RunID,
						kind,
					})
				}
				fmt.Fprintln(out, cli.Table([]string{"Name", "Created", "Size", "Grants", "Awards", "Run", "Type"}, rows))
				return nil
			})
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Replace the store with a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint info: %w", err)
				}

				if !force && !confirm(cmd, fmt.Sprintf("This will replace the stored dataset with checkpoint %s (created %s).",
					id, info.CreatedAt.Format("2006-01-02 15:04:05"))) {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Restore cancelled."))
					return nil
				}

				if err := manager.Restore(ctx, id); err != nil {
					return fmt.Errorf("failed to restore checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored from checkpoint "+id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]
			return withCheckpoints(ctx, func(manager *storage.CheckpointManager) error {
				info, err := manager.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to get checkpoint info: %w", err)
				}

				if !force && !confirm(cmd, fmt.Sprintf("This will permanently delete checkpoint %s (%s).",
					id, humanize.Bytes(uint64(info.FileSize)))) {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Deletion cancelled."))
					return nil
				}

				if err := manager.Delete(ctx, id); err != nil {
					if errors.Is(err, storage.ErrCheckpointNotFound) {
						return common.NewUserError("No checkpoint named "+id, err)
					}
					return fmt.Errorf("failed to delete checkpoint: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted checkpoint "+id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

// confirm prints prompt and reads a yes/no answer from the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatWarning(prompt))
	fmt.Fprint(out, "Continue? (y/N) ")

	response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y")
}
