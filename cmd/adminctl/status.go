package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aura-webinar/workshops/internal/eligibility"
	"github.com/aura-webinar/workshops/internal/events"
)

var statusAt string

type statusOutput struct {
	EventID   string     `json:"event_id"`
	Name      string     `json:"name"`
	Capacity  int        `json:"capacity"`
	IsOpen    bool       `json:"is_open"`
	Reason    string     `json:"reason"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Display   string     `json:"deadline_display,omitempty"`
	Countdown string     `json:"countdown,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status [event-id]",
	Short: "Show whether registration is open for an event",
	Long: `Evaluate an event's registration deadline as JSON. Defaults to CURRENT_EVENT_ID.

Examples:
  adminctl status
  adminctl status youthai-explorer-2025-nov --at 2025-11-12T00:00:00Z`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Event.Location()
		if err != nil {
			return err
		}
		catalog, err := events.Load(cfg.Event.CatalogFile)
		if err != nil {
			return err
		}

		id := cfg.Event.CurrentID
		if len(args) == 1 {
			id = args[0]
		}
		ev, ok := catalog.Get(id)
		if !ok {
			return fmt.Errorf("event %q not in catalog", id)
		}

		now := time.Now
		if statusAt != "" {
			at, err := time.Parse(time.RFC3339, statusAt)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			now = func() time.Time { return at }
		}
		engine := eligibility.NewEngine(catalog, eligibility.WithClock(now), eligibility.WithLocation(loc))
		st := engine.CheckStatus(id)

		out := statusOutput{
			EventID:  ev.ID,
			Name:     ev.Name,
			Capacity: ev.MaxCapacity,
			IsOpen:   st.IsOpen,
			Reason:   st.Reason,
			Deadline: st.Deadline,
		}
		if st.Deadline != nil {
			out.Display = eligibility.FormatDeadline(st.Deadline)
			out.Countdown = eligibility.FormatCountdown(engine.TimeRemaining(*st.Deadline))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusAt, "at", "", "evaluate at this RFC 3339 instant instead of now")
	rootCmd.AddCommand(statusCmd)
}
