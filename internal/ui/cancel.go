package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/clinica/internal/appointment"
)

func (a *App) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment",
		Long: `Cancel an appointment by its ID. Cancelled appointments stay in the
book but no longer block their slot.

Example:
  clinica cancel 4f9c2a1e-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setStatus(cmd, args[0], appointment.StatusCancelled, "Cancelled")
		},
	}
}

func (a *App) confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <appointment-id>",
		Short: "Mark an appointment as confirmed",
		Long: `Mark a pending appointment as confirmed by the patient.

Example:
  clinica confirm 4f9c2a1e-...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.setStatus(cmd, args[0], appointment.StatusConfirmed, "Confirmed")
		},
	}
}

func (a *App) setStatus(cmd *cobra.Command, id string, status appointment.Status, verb string) error {
	if err := a.ensureRepo(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := a.repo.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("updating appointment: %w", err)
	}
	a.logger.Info("appointment_status_changed", "appointment_id", id, "status", string(status))

	appt, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, appt.Summary())
	return nil
}
