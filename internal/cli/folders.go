package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vidshelf/backend/internal/models"
	"github.com/vidshelf/backend/internal/reconcile"
	"github.com/vidshelf/backend/internal/services"
)

var flagCounts bool

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Inspect folders",
}

var foldersTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print every folder with its path, owner and video counts",
	Long: `Print every folder with its path, owner and local video count.

  vidctl folders tree            Local data only
  vidctl folders tree --counts   Also count files in each remote directory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var folders []models.Folder
		if err := db.WithContext(ctx).Order("id ASC").Find(&folders).Error; err != nil {
			return fmt.Errorf("loading folders: %w", err)
		}
		root := reconcile.BuildTree(folders)

		local, err := localVideoCounts(cmd)
		if err != nil {
			return err
		}

		var remote map[string]int
		if flagCounts {
			remote, err = remoteFileCounts(cmd, folders)
			if err != nil {
				return err
			}
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), treeRows(root, local, remote))
		}
		renderFolderTree(cmd.OutOrStdout(), root, local, remote)
		return nil
	},
}

func init() {
	foldersTreeCmd.Flags().BoolVar(&flagCounts, "counts", false, "Query the file host for per-directory file counts")
	foldersCmd.AddCommand(foldersTreeCmd)
	rootCmd.AddCommand(foldersCmd)
}

func localVideoCounts(cmd *cobra.Command) (map[uint]int64, error) {
	var rows []struct {
		FolderID uint
		Total    int64
	}
	err := db.WithContext(cmd.Context()).Model(&models.Video{}).
		Select("folder_id, COUNT(*) AS total").
		Where("folder_id IS NOT NULL").
		Group("folder_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting videos: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.FolderID] = row.Total
	}
	return counts, nil
}

// remoteFileCounts is keyed by normalized dir id.
func remoteFileCounts(cmd *cobra.Command, folders []models.Folder) (map[string]int, error) {
	var dirIDs []string
	for _, folder := range folders {
		if folder.RemoteDirID != nil && *folder.RemoteDirID != "" {
			dirIDs = append(dirIDs, *folder.RemoteDirID)
		}
	}

	library := services.NewLibraryService(db, fileHost(), nil, nil, cfg.FileHost)
	files, err := library.ListDirectories(cmd.Context(), dirIDs)
	if err != nil {
		return nil, fmt.Errorf("listing remote directories: %w", err)
	}

	counts := make(map[string]int, len(dirIDs))
	for _, file := range files {
		if dir, ok := reconcile.NormalizeDirID(file.DirID); ok {
			counts[dir]++
		}
	}
	return counts, nil
}

type folderRow struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Depth       int    `json:"depth"`
	OwnerID     uint   `json:"ownerID"`
	RemoteDirID string `json:"remoteDirID"`
	Videos      int64  `json:"videos"`
	RemoteFiles *int   `json:"remoteFiles,omitempty"`
}

func treeRows(root *reconcile.TreeNode, local map[uint]int64, remote map[string]int) []folderRow {
	rows := []folderRow{}
	root.Walk(func(node *reconcile.TreeNode) {
		if node.IsRoot() {
			return
		}
		row := folderRow{
			ID:     *node.ID,
			Name:   node.Name,
			Path:   node.Path,
			Depth:  node.Depth,
			Videos: local[*node.ID],
		}
		if node.OwnerID != nil {
			row.OwnerID = *node.OwnerID
		}
		if node.RemoteDirID != nil {
			row.RemoteDirID = *node.RemoteDirID
		}
		if remote != nil {
			count := 0
			if dir, ok := reconcile.NormalizeDirID(row.RemoteDirID); ok {
				count = remote[dir]
			}
			row.RemoteFiles = &count
		}
		rows = append(rows, row)
	})
	return rows
}

func renderFolderTree(w io.Writer, root *reconcile.TreeNode, local map[uint]int64, remote map[string]int) {
	rows := treeRows(root, local, remote)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No folders found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "FOLDER\tID\tOWNER\tDIR\tVIDEOS"
	if remote != nil {
		header += "\tREMOTE"
	}
	fmt.Fprintln(tw, header)

	for _, row := range rows {
		dir := row.RemoteDirID
		if dir == "" {
			dir = "-"
		}
		line := fmt.Sprintf("%s%s\t%d\t%d\t%s\t%d",
			strings.Repeat("  ", row.Depth-1), row.Name, row.ID, row.OwnerID, dir, row.Videos)
		if row.RemoteFiles != nil {
			line += fmt.Sprintf("\t%d", *row.RemoteFiles)
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}
