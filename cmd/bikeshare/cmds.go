package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cyclecraft/bikeshare/internal/api"
	"github.com/cyclecraft/bikeshare/internal/api/handler"
	"github.com/cyclecraft/bikeshare/internal/chart"
	"github.com/cyclecraft/bikeshare/internal/config"
	"github.com/cyclecraft/bikeshare/internal/export"
	"github.com/cyclecraft/bikeshare/internal/model"
	"github.com/cyclecraft/bikeshare/internal/pipeline"
	"github.com/cyclecraft/bikeshare/internal/report"
	"github.com/cyclecraft/bikeshare/internal/store"
	"github.com/cyclecraft/bikeshare/pkg/router"
	"github.com/cyclecraft/bikeshare/pkg/utils"
)

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the trip CSV into the analytic store",
		Args:  cobra.NoArgs,
		RunE:  ingest}
	cmd.Flags().Bool("replace", false, "replace an existing trip table")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "analyze",
		Short: "Run the analytic queries and publish the result tables",
		Args:  cobra.NoArgs,
		RunE:  analyze}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the JSON API",
		Args:  cobra.NoArgs,
		RunE:  serve}
	cmd.Flags().String("addr", config.DefaultAddr, "listen address")
	cmd.Flags().String("chart-cache-dir", "", "badger directory for rendered charts (empty keeps them in memory)")
	mustBind(cmd, "addr", "addr")
	mustBind(cmd, "chart_cache_dir", "chart-cache-dir")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "charts",
		Short: "Render the five result charts to PNG files",
		Args:  cobra.NoArgs,
		RunE:  renderCharts}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Write every published table into one Excel workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportWorkbook}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the trip graph model",
		Args:  cobra.NoArgs,
		Run:   schema}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "runs",
		Short: "List past analysis runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns}
	cmd.Flags().Int("limit", 20, "number of runs to show")
	root.AddCommand(cmd)
}

func mustBind(cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		log.Fatalf("bind flag %s: %v", flag, err)
	}
}

func openRelational() (*store.Relational, error) {
	return store.OpenRelational(cfg.RelationalDB)
}

func ingest(cmd *cobra.Command, args []string) error {
	replace, _ := cmd.Flags().GetBool("replace")

	a, err := store.OpenAnalytic(cfg.AnalyticDB)
	if err != nil {
		return err
	}
	defer a.Close()

	return pipeline.IngestTrips(cmd.Context(), a, cfg.TripsCSV, cfg.TripTable, replace)
}

func analyze(cmd *cobra.Command, args []string) error {
	a, err := store.OpenAnalytic(cfg.AnalyticDB)
	if err != nil {
		return err
	}
	defer a.Close()

	rel, err := openRelational()
	if err != nil {
		return err
	}
	defer rel.Close()

	analyzer := &pipeline.Analyzer{
		Analytic:    a,
		Relational:  rel,
		TripTable:   cfg.TripTable,
		MaxRows:     cfg.MaxResultRows,
		PreviewRows: cfg.PreviewRows,
		Preview:     cmd.OutOrStdout(),
		SmallCSV:    cfg.SmallCSV,
	}

	rep, err := analyzer.Run(cmd.Context())
	if err != nil {
		return err
	}
	printResults(cmd, rep)
	if rep.Run.Status == model.RunFailed {
		return errors.Errorf("analysis run %s failed: no result was published", rep.Run.ID)
	}
	return nil
}

func printResults(cmd *cobra.Command, rep *pipeline.RunReport) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Query", "Table", "Rows", "Sampled", "Status"})
	for _, r := range rep.Results {
		status := color.GreenString("ok")
		if !r.Success {
			status = color.RedString("failed: %s", r.Error)
		}
		table.Append([]string{r.Name, r.Table, fmt.Sprint(r.RowCount), fmt.Sprint(r.Sampled), status})
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "run %s %s\n", rep.Run.ID, statusColor(rep.Run.Status))
}

func statusColor(status string) string {
	switch status {
	case model.RunCompleted:
		return color.GreenString(status)
	case model.RunPartial:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	rel, err := openRelational()
	if err != nil {
		return err
	}
	defer rel.Close()

	cache, err := chart.OpenCache(cfg.ChartCacheDir, config.ChartCacheTTL)
	if err != nil {
		return err
	}
	defer cache.Close()

	h, err := handler.New(rel, cache)
	if err != nil {
		return err
	}

	r := router.New()
	api.RegisterRoutes(r, h)
	srv := r.Server(cfg.Addr, config.ServerReadTimeout, config.ServerWriteTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server started on %s", color.GreenString("http://localhost%s", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	case <-cmd.Context().Done():
	}

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(ctx), "shutdown")
}

func renderCharts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rel, err := openRelational()
	if err != nil {
		return err
	}
	defer rel.Close()

	runID, err := rel.LatestRunID(ctx)
	if err != nil {
		return err
	}

	reader := report.NewReader(rel)
	om := utils.NewOutputManager(cfg.OutputDir)
	renderers := map[string]func() ([]byte, error){
		model.GrowthRate: func() ([]byte, error) {
			rows, err := reader.Growth(ctx)
			if err != nil {
				return nil, err
			}
			return chart.Growth(rows)
		},
		model.PopularStations: func() ([]byte, error) {
			rows, err := reader.Stations(ctx)
			if err != nil {
				return nil, err
			}
			return chart.Stations(report.TopStations(rows, report.StationsTop))
		},
		model.GenderDuration: func() ([]byte, error) {
			rows, err := reader.Gender(ctx)
			if err != nil {
				return nil, err
			}
			return chart.Gender(rows)
		},
		model.AgeTarget: func() ([]byte, error) {
			rows, err := reader.Age(ctx)
			if err != nil {
				return nil, err
			}
			return chart.Age(report.FilterAgeGroups(rows, nil))
		},
		model.Temporal: func() ([]byte, error) {
			rows, err := reader.Temporal(ctx)
			if err != nil {
				return nil, err
			}
			return chart.Temporal(rows)
		},
	}

	written := 0
	for _, name := range model.ResultNames {
		data, err := renderers[name]()
		if err != nil {
			log.WithError(err).WithField("chart", name).Error("chart skipped")
			continue
		}
		path, err := om.WriteFile(runID, name+".png", data)
		if err != nil {
			return err
		}
		written++
		logWritten(om, path)
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("wrote"), path)
	}
	if written == 0 {
		return errors.New("no chart could be rendered")
	}
	return nil
}

func exportWorkbook(cmd *cobra.Command, args []string) error {
	rel, err := openRelational()
	if err != nil {
		return err
	}
	defer rel.Close()

	om := utils.NewOutputManager(cfg.OutputDir)
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		runID, err := rel.LatestRunID(cmd.Context())
		if err != nil {
			return err
		}
		if path, err = om.GetOutputFilePath(runID, "bikeshare.xlsx"); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create workbook file")
	}
	if err := export.Write(cmd.Context(), rel, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close workbook file")
	}
	logWritten(om, path)
	fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("wrote"), path)
	return nil
}

// logWritten logs the size and type of an output file.
func logWritten(om *utils.OutputManager, path string) {
	size, err := om.GetFileSize(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("cannot stat output file")
		return
	}
	log.WithFields(log.Fields{"file": path, "bytes": size, "type": om.GetFileType(path)}).Info("output written")
}

func schema(cmd *cobra.Command, args []string) {
	nodes, rels := model.TripGraph()

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Node", "Properties"})
	for _, n := range nodes {
		table.Append([]string{n.Label, strings.Join(n.Properties, ", ")})
	}
	table.Render()

	table = tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"From", "Relationship", "To"})
	for _, r := range rels {
		table.Append([]string{r.Start.Label, r.Type, r.End.Label})
	}
	table.Render()
}

func listRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	rel, err := openRelational()
	if err != nil {
		return err
	}
	defer rel.Close()

	runs, err := rel.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Run", "Status", "Started", "Finished", "Succeeded", "Failed"})
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Local().Format("2006-01-02 15:04:05")
		}
		table.Append([]string{
			r.ID, statusColor(r.Status), r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			finished, fmt.Sprint(r.Succeeded), fmt.Sprint(r.Failed),
		})
	}
	table.Render()
	return nil
}
