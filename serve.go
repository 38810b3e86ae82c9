package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRouter(store *CalendarStore) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/calendars", func(c *gin.Context) {
		listings, err := listCalendars(store)
		if err != nil {
			log.WithError(err).Error("Error fetching calendars")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch calendars"})
			return
		}
		c.JSON(http.StatusOK, listings)
	})

	return r
}

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calendar list as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if listen == "" {
				listen = a.config.Listen
			}
			gin.SetMode(gin.ReleaseMode)
			log.WithField("listen", listen).Info("Server running")
			return newRouter(a.store).Run(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
