package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/killallgit/study-api/internal/client"
	"github.com/killallgit/study-api/internal/models"
	"github.com/killallgit/study-api/internal/services/studies"
	"github.com/killallgit/study-api/pkg/config"
)

var (
	studiesRemote string
	activityLimit int
)

// studiesCmd groups study maintenance commands
var studiesCmd = &cobra.Command{
	Use:   "studies",
	Short: "Inspect and create studies",
	Long: `Inspect the samples root directly or through a running server.

Without --remote the commands work on storage.samples_dir. With --remote they
talk to the given server the way a viewer would.`,
}

var studiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies and their model counts",
	Args:  cobra.NoArgs,
	RunE:  runStudiesList,
}

var studiesShowCmd = &cobra.Command{
	Use:   "show <study-id>",
	Short: "Show the models, annotations and videos of a study",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudiesShow,
}

var studiesInitCmd = &cobra.Command{
	Use:   "init <study-id>",
	Short: "Create a study directory with its annotations and videos layout",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudiesInit,
}

var studiesActivityCmd = &cobra.Command{
	Use:   "activity <study-id>",
	Short: "Show recent writes to a study from a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudiesActivity,
}

func init() {
	rootCmd.AddCommand(studiesCmd)
	studiesCmd.AddCommand(studiesListCmd, studiesShowCmd, studiesInitCmd, studiesActivityCmd)

	studiesCmd.PersistentFlags().StringVar(&studiesRemote, "remote", "", "server base URL, e.g. http://192.168.1.20:3001")
	studiesActivityCmd.Flags().IntVar(&activityLimit, "limit", 20, "maximum number of entries")
}

func openLocalStore() (*studies.FilesystemStore, error) {
	return studies.NewFilesystemStore(config.GetString("storage.samples_dir"),
		studies.WithLogger(logger.Named("store")),
		studies.WithFileLocks(config.GetBool("storage.lock_files")))
}

func newClient(baseURL string) *client.Client {
	if baseURL == "" {
		baseURL = config.GetString("client.base_url")
	}
	return client.NewClient(client.Config{
		BaseURL: baseURL,
		Timeout: config.GetDuration("client.timeout"),
	})
}

func runStudiesList(cmd *cobra.Command, args []string) error {
	var (
		list []models.StudySummary
		err  error
	)
	if studiesRemote != "" {
		list, err = newClient(studiesRemote).ListStudies(cmd.Context())
	} else {
		var store *studies.FilesystemStore
		if store, err = openLocalStore(); err == nil {
			list, err = store.ListStudies(cmd.Context())
		}
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No studies found")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.ID, strconv.Itoa(s.ModelCount), s.Path})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Study", "Models", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))
	return nil
}

func runStudiesShow(cmd *cobra.Command, args []string) error {
	var (
		study *models.Study
		err   error
	)
	if studiesRemote != "" {
		study, err = newClient(studiesRemote).GetStudy(cmd.Context(), args[0])
	} else {
		var store *studies.FilesystemStore
		if store, err = openLocalStore(); err == nil {
			study, err = store.GetStudy(cmd.Context(), args[0], config.GetString("client.base_url"))
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", study.Name, study.ID)

	perModel := make(map[string]int, len(study.Models))
	for _, a := range study.Annotations {
		perModel[a.ModelID]++
	}

	rows := make([][]string, 0, len(study.Models))
	for _, m := range study.Models {
		rows = append(rows, []string{m.ID, string(m.Type), strconv.Itoa(perModel[m.ID]), m.URL})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Model", "Type", "Annotations", "URL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))

	if len(study.Videos) > 0 {
		rows = rows[:0]
		for _, v := range study.Videos {
			rows = append(rows, []string{v.Name, time.UnixMilli(v.Timestamp).Format(time.RFC3339)})
		}
		fmt.Fprintln(out, renderTable([]string{"Video", "Recorded"}, rows, nil))
	}
	return nil
}

func runStudiesInit(cmd *cobra.Command, args []string) error {
	store, err := openLocalStore()
	if err != nil {
		return err
	}
	if err := store.CreateStudy(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Study %s ready, copy model files into it\n", args[0])
	return nil
}

func runStudiesActivity(cmd *cobra.Command, args []string) error {
	entries, err := newClient(studiesRemote).ListActivity(cmd.Context(), args[0], activityLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		subject := e.ModelID
		if e.Subject != "" {
			subject = e.Subject
		}
		rows = append(rows, []string{
			e.CreatedAt.Local().Format(time.DateTime),
			string(e.Action),
			subject,
			strconv.Itoa(e.Count),
			e.Client,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"When", "Action", "Subject", "Count", "Client"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
