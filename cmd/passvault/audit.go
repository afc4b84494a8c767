package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
}

// auditCmd is the parent command for audit operations
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
}

// auditVerifyCmd verifies audit log integrity
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit log HMAC chain integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureUnlocked(); err != nil {
			return err
		}
		defer v.Lock()

		result, err := v.AuditVerify()
		if err != nil {
			return fmt.Errorf("failed to verify audit log: %w", err)
		}

		if !result.Valid {
			fmt.Printf("Audit log verification FAILED\n")
			fmt.Printf("  Records total: %d\n", result.RecordsTotal)
			fmt.Printf("  Records verified: %d\n", result.RecordsVerified)
			for _, e := range result.Errors {
				fmt.Printf("  - %s\n", e)
			}
			return fmt.Errorf("audit log integrity check failed")
		}

		fmt.Printf("Audit log verified: %d records, chain intact\n", result.RecordsTotal)
		return nil
	},
}
