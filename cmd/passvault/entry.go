package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Entry command flags
var (
	addNotes       string
	updateSite     string
	updateUsername string
	updatePassword bool
	updateNotes    string
	getShowNotes   bool
)

func init() {
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Optional notes for the entry")

	getCmd.Flags().BoolVar(&getShowNotes, "notes", false, "Show notes with the entry")

	updateCmd.Flags().StringVar(&updateSite, "site", "", "New site value")
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "New username value")
	updateCmd.Flags().BoolVar(&updatePassword, "password", false, "Prompt for a new password")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "New notes (empty string clears them)")
}

// parseEntryID parses a positional entry id argument.
func parseEntryID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entry id %q", arg)
	}
	return id, nil
}

// addCmd stores a new entry
var addCmd = &cobra.Command{
	Use:   "add [site] [username]",
	Short: "Adds a new entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, username := args[0], args[1]

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		password, err := readPassword("Enter password for entry: ")
		if err != nil {
			return err
		}
		if password == "" {
			return fmt.Errorf("entry password must not be empty")
		}

		id, err := v.AddEntry(site, username, password, addNotes)
		if err != nil {
			return fmt.Errorf("failed to add entry: %w", err)
		}

		fmt.Printf("Entry %d added\n", id)
		return nil
	},
}

// getCmd retrieves and decrypts a single entry
var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Gets an entry and its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		entry, err := v.GetEntry(id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		fmt.Printf("Site:     %s\n", entry.Site)
		fmt.Printf("Username: %s\n", entry.Username)
		fmt.Printf("Password: %s\n", entry.Password)
		if getShowNotes && entry.Notes != "" {
			fmt.Printf("Notes:    %s\n", entry.Notes)
		}
		fmt.Printf("Created:  %s\n", entry.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated:  %s\n", entry.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

// listCmd lists entries, optionally filtered by a search term
var listCmd = &cobra.Command{
	Use:   "list [term]",
	Short: "Lists entries, newest change first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var search string
		if len(args) == 1 {
			search = args[0]
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		items, err := v.ListEntries(search)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No entries found")
			return nil
		}

		for _, item := range items {
			fmt.Printf("%d\t%s\t%s\t%s\n",
				item.ID, item.Site, item.Username,
				item.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// updateCmd edits an existing entry. Flags left unset preserve the stored
// values; --notes "" explicitly clears notes.
var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Updates an entry's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		// Fetch current values so unset flags preserve them.
		current, err := v.GetEntry(id)
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		site := current.Site
		if cmd.Flags().Changed("site") {
			site = updateSite
		}
		username := current.Username
		if cmd.Flags().Changed("username") {
			username = updateUsername
		}

		var password *string
		if updatePassword {
			p, err := readPassword("Enter new password for entry: ")
			if err != nil {
				return err
			}
			if p == "" {
				return fmt.Errorf("entry password must not be empty")
			}
			password = &p
		}

		var notes *string
		if cmd.Flags().Changed("notes") {
			notes = &updateNotes
		}

		if err := v.UpdateEntry(id, site, username, password, notes); err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		fmt.Printf("Entry %d updated\n", id)
		return nil
	},
}

// deleteCmd removes an entry
var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Deletes an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseEntryID(args[0])
		if err != nil {
			return err
		}

		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		if err := v.DeleteEntry(id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Printf("Entry %d deleted\n", id)
		return nil
	},
}
