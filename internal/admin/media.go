package admin

import (
	"archive/zip"
	"context"
	"dance-entry-api/internal/attachment"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const maxZipFiles = 5000

func (as *AdminService) StreamMediaZip(ctx context.Context, out io.Writer, req MediaRequest) error {
	entryIDs := dedupeAndFilterIDs(req.EntryIDs)
	if len(entryIDs) == 0 {
		ids, err := as.collectAllEntryIDs(req.Clauses, "")
		if err != nil {
			return err
		}
		entryIDs = ids
	}
	if len(entryIDs) == 0 {
		return fmt.Errorf("no matching entries found")
	}

	roles := make([]string, 0, len(req.Roles))
	for _, r := range req.Roles {
		role, err := attachment.ParseRole(r)
		if err != nil {
			return err
		}
		roles = append(roles, string(role))
	}

	rows, err := as.loadMediaRows(ctx, entryIDs, roles)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no media found for the selected filters")
	}
	if len(rows) > maxZipFiles {
		return fmt.Errorf("too many files to zip (%d). narrow your filters", len(rows))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntryID != rows[j].EntryID {
			return rows[i].EntryID < rows[j].EntryID
		}
		return rows[i].Role < rows[j].Role
	})

	zw := zip.NewWriter(out)
	defer zw.Close()

	for _, r := range rows {
		baseName := sanitizeFilename(r.FileName)
		if baseName == "file" {
			baseName = sanitizeFilename(path.Base(r.FilePath))
		}
		name := zipEntryPath(r, req.CategorizeByEntry, req.CategorizeByRole) +
			fmt.Sprintf("entry_%d_%s_%s", r.EntryID, r.Role, baseName)

		w, err := zw.Create(name)
		if err != nil {
			return err
		}

		rc, err := as.Store.Open(ctx, r.FilePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", r.FilePath, err)
		}
		_, copyErr := io.Copy(w, rc)
		_ = rc.Close()
		if copyErr != nil {
			return copyErr
		}
	}

	return nil
}

func (as *AdminService) loadMediaRows(ctx context.Context, entryIDs []int64, roles []string) ([]mediaZipRow, error) {
	q := as.DB.WithContext(ctx).
		Table("entry_attachments a").
		Joins("JOIN entries e ON e.id = a.entry_id").
		Select(`
			a.id,
			a.entry_id,
			a.role,
			a.file_path,
			COALESCE(a.file_name, '') AS file_name,
			COALESCE(e.team_name, '') AS team_name
		`).
		Where("a.entry_id IN ?", entryIDs)

	if len(roles) > 0 {
		q = q.Where("a.role IN ?", roles)
	}

	var out []mediaZipRow
	if err := q.Order("a.entry_id ASC, a.role ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func zipEntryPath(r mediaZipRow, byEntry, byRole bool) string {
	parts := []string{}

	if byEntry {
		folder := fmt.Sprintf("entry_%d", r.EntryID)
		if team := strings.TrimSpace(r.TeamName); team != "" {
			folder = fmt.Sprintf("entry_%d_%s", r.EntryID, sanitizePathPart(team))
		}
		parts = append(parts, folder)
	}
	if byRole {
		parts = append(parts, sanitizePathPart(r.Role))
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "/") + "/"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "file"
	}
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, `"`, "")
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	return name
}

func sanitizePathPart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	replacer := strings.NewReplacer(
		"\\", "_", "/", "_", "..", "_", ":", "_", "*", "_", "?", "_",
		"<", "_", ">", "_", "|", "_", `"`, "", "\n", "", "\r", "",
	)
	return replacer.Replace(s)
}
