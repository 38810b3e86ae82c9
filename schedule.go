package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cronLogger routes cron's own messages through logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return fields
}

// newSyncScheduler runs job on spec. A run still in progress makes the next
// tick skip, so syncs never overlap.
func newSyncScheduler(spec string, job func()) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return c, nil
}

func newScheduleCmd() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "schedule [source...]",
		Short: "Run sync periodically on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			if spec == "" {
				spec = a.config.Schedule
			}
			a.Close()
			if spec == "" {
				return fmt.Errorf("no schedule given, set --cron or schedule in %s", configFileName)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newSyncScheduler(spec, func() {
				if err := syncCalendars(ctx, args); err != nil {
					log.WithError(err).Error("Scheduled sync failed")
				}
			})
			if err != nil {
				return err
			}

			log.WithField("schedule", spec).Info("⏰ Scheduler started")
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			log.Info("Scheduler stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", "cron expression (overrides config schedule)")
	return cmd
}
