// dp - dayplan command-line client over the local database
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/dayplan/internal/config"
	"github.com/quantumlife/dayplan/internal/core"
	"github.com/quantumlife/dayplan/internal/ledger"
	"github.com/quantumlife/dayplan/internal/logging"
	"github.com/quantumlife/dayplan/internal/planner"
	"github.com/quantumlife/dayplan/internal/storage"
)

// app carries the state shared by every subcommand.
type app struct {
	dataDir string
	user    string
	asJSON  bool
	now     func() time.Time

	cfg     *config.Config
	db      *storage.DB
	stores  *storage.Stores
	service *planner.Service
	ledger  *ledger.Store
	audit   *ledger.Recorder
}

func main() {
	a := &app{now: time.Now}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultUser() string {
	if u := os.Getenv("DAYPLAN_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "me"
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dp",
		Short:         "dp - plan your day around goals, mind and body",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}

	defaults := config.Default()
	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", defaults.DataDir, "Data directory")
	rootCmd.PersistentFlags().StringVarP(&a.user, "user", "u", defaultUser(), "User id")
	rootCmd.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print raw JSON")

	rootCmd.AddCommand(profileCmd(a))
	rootCmd.AddCommand(goalCmd(a))
	rootCmd.AddCommand(taskCmd(a))
	rootCmd.AddCommand(planCmd(a))
	rootCmd.AddCommand(nowCmd(a))
	rootCmd.AddCommand(remainingCmd(a))
	rootCmd.AddCommand(availableCmd(a))
	rootCmd.AddCommand(historyCmd(a))

	return rootCmd
}

// open loads the config found in the data directory and opens the database.
func (a *app) open(cmd *cobra.Command) error {
	path := ""
	if cmd.Flags().Changed("data-dir") {
		path = filepath.Join(a.dataDir, "config.json")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Features.DebugMode {
		logging.SetLevel(logging.DEBUG)
	} else {
		logging.SetLevel(logging.WARN)
	}

	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migration failed: %w", err)
	}

	stores := storage.NewStores(db)
	svc, err := planner.NewService(planner.ServiceConfig{
		Profiles: stores.Profiles,
		Goals:    stores.Goals,
		Mind:     stores.Mind,
		Body:     stores.Body,
		Policy:   cfg.Planner,
		Clock:    a.now,
	})
	if err != nil {
		db.Close()
		return err
	}

	a.cfg, a.db, a.stores, a.service = cfg, db, stores, svc
	a.ledger = ledger.NewStore(db.Conn())
	a.audit = ledger.NewRecorder(a.ledger, ledger.ActorUser)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func (a *app) userID() core.UserID { return core.UserID(a.user) }

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// record logs ledger failures; the change itself is already stored.
func (a *app) record(err error) {
	if err != nil {
		logging.WithField("error", err).Warn("Activity not recorded")
	}
}

// emit prints v as indented JSON when --json is set, else calls render.
func (a *app) emit(w io.Writer, v interface{}, render func()) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	render()
	return nil
}
