/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/loqalabs/loqa-transcript/internal/storage"
	"github.com/loqalabs/loqa-transcript/internal/transcript"
)

const defaultDBPath = "./data/loqa-transcript.db"

func main() {
	var (
		dbPath    = flag.String("db", defaultDBPath, "Path to the transcript database")
		action    = flag.String("action", "list", "Action to perform: list, export, delete")
		sessionID = flag.String("session", "", "Session ID for export and delete")
		format    = flag.String("format", "txt", "Export format: txt, md, json, srt, vtt")
		outPath   = flag.String("out", "", "Output file for export (stdout when empty)")

		timestamps   = flag.Bool("timestamps", true, "Include timestamps in export")
		speakers     = flag.Bool("speakers", true, "Include speakers in export")
		languages    = flag.Bool("languages", false, "Include detected language in export")
		translations = flag.Bool("translations", false, "Include translations in export")
		metadata     = flag.Bool("metadata", false, "Include audio metadata in export")
	)
	flag.Parse()

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: *dbPath})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	sessions := storage.NewSessionStore(db)

	switch *action {
	case "list":
		err = listSessions(sessions)
	case "export":
		opts := transcript.ExportOptions{
			IncludeTimestamps:   *timestamps,
			IncludeSpeakers:     *speakers,
			IncludeLanguage:     *languages,
			IncludeTranslations: *translations,
			IncludeMetadata:     *metadata,
		}
		err = exportSession(sessions, *sessionID, transcript.Format(*format), opts, *outPath)
	case "delete":
		err = deleteSession(sessions, *sessionID)
	default:
		err = fmt.Errorf("unknown action: %s", *action)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listSessions(sessions *storage.SessionStore) error {
	records, err := sessions.List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tENTRIES\tUPDATED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\n",
			rec.SessionID, rec.EntryCount, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func exportSession(sessions *storage.SessionStore, sessionID string, format transcript.Format, opts transcript.ExportOptions, outPath string) error {
	if sessionID == "" {
		return fmt.Errorf("session is required for export")
	}

	entries, err := sessions.Load(sessionID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("session has no entries: %s", sessionID)
	}

	store := transcript.NewStore(sessionID)
	store.ReplaceAll(entries)

	rendered, err := store.Export(format, opts)
	if err != nil {
		return err
	}

	if outPath == "" {
		fmt.Print(rendered)
		return nil
	}
	return os.WriteFile(outPath, []byte(rendered), 0644)
}

func deleteSession(sessions *storage.SessionStore, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session is required for delete")
	}

	if err := sessions.Delete(sessionID); err != nil {
		return err
	}

	fmt.Printf("Deleted session: %s\n", sessionID)
	return nil
}
