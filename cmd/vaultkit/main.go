package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/urfave/cli/v2"

	"vaultkit/internal/archive"
	"vaultkit/internal/config"
	"vaultkit/internal/db"
	"vaultkit/internal/export"
	"vaultkit/internal/logger"
	"vaultkit/internal/quality"
	"vaultkit/internal/report"
	"vaultkit/internal/scanner"
	"vaultkit/internal/template"
	"vaultkit/internal/validate"
	"vaultkit/internal/watch"
	"vaultkit/pkg/models"
	"vaultkit/pkg/utils"
	"vaultkit/pkg/version"
)

var (
	cfg    *config.Config
	applog *logger.Logger
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal(err)
	}
	applog = logger.New("vaultkit", cfg.LogJSON)

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	vaultFlag := &cli.StringFlag{
		Name:     "vault",
		Usage:    "Vault name",
		Required: true,
	}

	app := &cli.App{
		Name:                 "vaultkit",
		Usage:                "Obsidian vault maintenance toolkit",
		Version:              version.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Register a new vault",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Vault name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Vault root directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "archive-folder",
						Usage: "Folder (relative to the vault root) stale notes are moved into",
						Value: "archive",
					},
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Object storage endpoint for archival upload (optional)",
					},
					&cli.StringFlag{
						Name:  "bucket",
						Usage: "Object storage bucket name",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Destination folder path in the bucket",
					},
					&cli.StringFlag{
						Name:  "access-key",
						Usage: "Object storage access key",
					},
					&cli.StringFlag{
						Name:  "secret-key",
						Usage: "Object storage secret key",
					},
				},
				Action: createVault,
			},
			{
				Name:  "scan",
				Usage: "Scan the vault and refresh the index",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Re-parse every file regardless of modification time",
					},
				},
				Action: scanVault,
			},
			{
				Name:  "validate",
				Usage: "Run validation rules over the indexed vault",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.StringSliceFlag{
						Name:  "rules",
						Usage: "Rules to run (default: all). Known: " + strings.Join(validate.AllRules, ", "),
					},
					&cli.IntFlag{
						Name:  "max-issues",
						Usage: "Maximum number of issues to print",
						Value: 25,
					},
				},
				Action: validateVault,
			},
			{
				Name:  "canvas",
				Usage: "Show canvas health scores",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.StringFlag{
						Name:  "file",
						Usage: "Re-score a single canvas file (vault-relative path)",
					},
				},
				Action: canvasHealth,
			},
			{
				Name:  "template",
				Usage: "Work with note templates",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List available templates",
						Flags:  []cli.Flag{vaultFlag},
						Action: templateList,
					},
					{
						Name:  "new",
						Usage: "Create a note from a template",
						Flags: []cli.Flag{
							vaultFlag,
							&cli.StringFlag{
								Name:     "template",
								Aliases:  []string{"t"},
								Usage:    "Template name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "title",
								Usage: "Note title (defaults to today's date)",
							},
							&cli.StringFlag{
								Name:  "out",
								Usage: "Vault-relative folder for the new note",
							},
							&cli.StringSliceFlag{
								Name:  "var",
								Usage: "Extra template variables as key=value",
							},
						},
						Action: templateNew,
					},
					{
						Name:   "metrics",
						Usage:  "Show template usage metrics",
						Flags:  []cli.Flag{vaultFlag},
						Action: templateMetrics,
					},
				},
			},
			{
				Name:  "assess",
				Usage: "Compute quality scores for indexed notes",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.StringFlag{
						Name:  "path",
						Usage: "Assess a single note (vault-relative path)",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Bypass the assessment cache",
					},
				},
				Action: assessVault,
			},
			{
				Name:  "archive",
				Usage: "Move stale notes into the archive folder",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Archive notes not modified within this duration",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload archived notes to the vault's object storage",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the plan without moving anything",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: archiveVault,
			},
			{
				Name:   "status",
				Usage:  "Show vault index status",
				Flags:  []cli.Flag{vaultFlag},
				Action: showStatus,
			},
			{
				Name:  "report",
				Usage: "Print the vault dashboard",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.IntFlag{
						Name:  "top",
						Usage: "Rows per table",
						Value: 10,
					},
				},
				Action: showReport,
			},
			{
				Name:  "export",
				Usage: "Export the vault index to an xlsx workbook",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file path",
						Required: true,
					},
				},
				Action: exportVault,
			},
			{
				Name:  "watch",
				Usage: "Re-index and re-validate files as they change",
				Flags: []cli.Flag{
					vaultFlag,
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Delay before processing a burst of changes",
						Value: 500 * time.Millisecond,
					},
				},
				Action: watchVault,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openVault opens the index database for a vault and loads its record.
func openVault(name string) (*db.DB, *models.Vault, error) {
	database, err := db.New(filepath.Join(cfg.DataDir, name+".db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %v", err)
	}
	vault, err := database.GetVault(name)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to get vault: %v", err)
	}
	return database, vault, nil
}

func createVault(c *cli.Context) error {
	name := c.String("name")
	rootPath, err := filepath.Abs(c.String("path"))
	if err != nil {
		return err
	}
	info, err := os.Stat(rootPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("vault path %s is not a directory", rootPath)
	}

	database, err := db.New(filepath.Join(cfg.DataDir, name+".db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	defer database.Close()

	// Clean and validate folder path
	folder := strings.Trim(c.String("folder"), "/")
	if folder != "" {
		folder = folder + "/"
	}

	vault := &models.Vault{
		Name:          name,
		RootPath:      rootPath,
		ArchiveFolder: strings.Trim(c.String("archive-folder"), "/"),
	}
	vault.Destination.Endpoint = c.String("endpoint")
	vault.Destination.Bucket = c.String("bucket")
	vault.Destination.Folder = folder
	vault.Destination.AccessKey = c.String("access-key")
	vault.Destination.SecretKey = c.String("secret-key")

	if err := database.CreateVault(vault); err != nil {
		return fmt.Errorf("failed to create vault: %v", err)
	}

	fmt.Printf("Vault '%s' created successfully\n", name)
	return nil
}

func scanVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	result, err := scanner.New(database, vault, cfg.Scan, applog.WithRole("scanner")).
		WithProgress().
		Scan(c.Context, c.Bool("full"))
	if err != nil {
		return fmt.Errorf("failed to scan vault: %v", err)
	}

	fmt.Printf("Scan completed in %s\n", utils.FormatDuration(result.Duration))
	fmt.Printf("Notes: %d added, %d updated, %d removed, %d unchanged\n",
		result.NotesAdded, result.NotesUpdated, result.NotesRemoved, result.Unchanged)
	fmt.Printf("Canvases: %d, Attachments: %d\n", result.Canvases, result.Attachments)
	return nil
}

func validateVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	runner := validate.NewRunner(database, vault, cfg.Validate, applog.WithRole("validate"))
	summary, err := runner.Run(c.Context, c.StringSlice("rules"))
	if err != nil {
		return err
	}

	report.Issues(os.Stdout, summary.Issues, c.Int("max-issues"))
	fmt.Printf("\nChecked %d notes: %d errors, %d warnings, %d info\n",
		summary.NotesChecked, summary.Errors, summary.Warnings, summary.Infos)

	if summary.HasErrors() {
		return cli.Exit("validation failed", 1)
	}
	return nil
}

func canvasHealth(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	if file := c.String("file"); file != "" {
		scan := scanner.New(database, vault, cfg.Scan, applog.WithRole("scanner"))
		if err := scan.ScanFile(c.Context, file); err != nil {
			return fmt.Errorf("failed to re-score canvas: %v", err)
		}
	}

	canvases, err := database.GetCanvases(vault.Name)
	if err != nil {
		return err
	}
	if file := c.String("file"); file != "" {
		for _, cv := range canvases {
			if cv.Path != file {
				continue
			}
			fmt.Printf("%s: score %d (%d nodes, %d edges)\n", cv.Path, cv.Score, cv.NodeCount, cv.EdgeCount)
			for _, problem := range cv.Problems {
				fmt.Printf("  - %s\n", problem)
			}
			return nil
		}
		return fmt.Errorf("canvas %s is not indexed", file)
	}

	report.Canvases(os.Stdout, canvases)
	return nil
}

func templateList(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	infos, err := template.NewEngine(database, vault, applog.WithRole("template")).List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-12s %s\n", info.Name, info.Source)
	}
	return nil
}

func templateNew(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	vars := make(map[string]string)
	for _, pair := range c.StringSlice("var") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		vars[key] = value
	}

	engine := template.NewEngine(database, vault, applog.WithRole("template"))
	path, err := engine.New(c.String("template"), c.String("title"), vars, c.String("out"))
	if err != nil {
		return fmt.Errorf("failed to create note: %v", err)
	}

	fmt.Printf("Created %s\n", path)
	return nil
}

func templateMetrics(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	metrics, err := template.NewEngine(database, vault, applog.WithRole("template")).Metrics()
	if err != nil {
		return err
	}
	report.Templates(os.Stdout, metrics, time.Now())
	return nil
}

func assessVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	notes, err := database.GetNotes(vault.Name)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return fmt.Errorf("no notes indexed, run scan first")
	}

	inputs, err := buildAssessmentInputs(database, vault, notes)
	if err != nil {
		return err
	}

	assessor := quality.NewAssessor(cfg.Quality.CacheSize, cfg.Quality.FreshnessHalfLife)
	noCache := c.Bool("no-cache")

	if path := c.String("path"); path != "" {
		in, ok := inputs[path]
		if !ok {
			return fmt.Errorf("note %s is not indexed", path)
		}
		scores := assessFor(assessor, in, noCache)
		if err := saveAssessment(database, vault.Name, in.Note, scores); err != nil {
			return err
		}
		fmt.Printf("%s\n", path)
		fmt.Printf("  completeness %.2f\n", scores.Completeness)
		fmt.Printf("  accuracy     %.2f\n", scores.Accuracy)
		fmt.Printf("  freshness    %.2f\n", scores.Freshness)
		fmt.Printf("  consistency  %.2f\n", scores.Consistency)
		fmt.Printf("  validity     %.2f\n", scores.Validity)
		fmt.Printf("  overall      %.2f\n", scores.Overall)
		return nil
	}

	var sum float64
	assessed := 0
	for _, note := range notes {
		if note.State != models.NoteStateIndexed {
			continue
		}
		in := inputs[note.Path]
		scores := assessFor(assessor, in, noCache)
		if err := saveAssessment(database, vault.Name, note, scores); err != nil {
			return err
		}
		sum += scores.Overall
		assessed++
	}
	if assessed == 0 {
		return fmt.Errorf("no indexed notes to assess")
	}

	stats := assessor.Stats()
	fmt.Printf("Assessed %d notes, average quality %.2f\n", assessed, sum/float64(assessed))
	fmt.Printf("Cache: %d hits, %d misses, %d evictions (size %d/%d)\n",
		stats.Hits, stats.Misses, stats.Evictions, stats.Size, stats.Capacity)
	return nil
}

// buildAssessmentInputs joins notes with their link resolution and recorded
// issues so the scorer sees broken-link and error counts.
func buildAssessmentInputs(database *db.DB, vault *models.Vault, notes []models.Note) (map[string]quality.Input, error) {
	links, err := database.GetLinks(vault.Name)
	if err != nil {
		return nil, err
	}
	canvases, err := database.GetCanvases(vault.Name)
	if err != nil {
		return nil, err
	}
	attachments, err := database.GetAttachmentPaths(vault.Name)
	if err != nil {
		return nil, err
	}
	issues, err := database.GetIssues(vault.Name)
	if err != nil {
		return nil, err
	}

	resolver := validate.NewResolver(notes, canvases, attachments)
	outgoing := make(map[string]int)
	broken := make(map[string]int)
	for _, link := range links {
		outgoing[link.SourcePath]++
		if !resolver.Resolve(link.Target, link.IsEmbed) {
			broken[link.SourcePath]++
		}
	}
	errorIssues := make(map[string]int)
	for _, issue := range issues {
		if issue.Severity == models.SeverityError {
			errorIssues[issue.Path]++
		}
	}

	inputs := make(map[string]quality.Input, len(notes))
	for _, note := range notes {
		inputs[note.Path] = quality.Input{
			Note:          note,
			OutgoingLinks: outgoing[note.Path],
			BrokenLinks:   broken[note.Path],
			ErrorIssues:   errorIssues[note.Path],
		}
	}
	return inputs, nil
}

func assessFor(assessor *quality.Assessor, in quality.Input, noCache bool) quality.Scores {
	if noCache {
		return assessor.Compute(in)
	}
	return assessor.Assess(in.Note.Path+"@"+in.Note.Checksum, in)
}

func saveAssessment(database *db.DB, vaultName string, note models.Note, scores quality.Scores) error {
	return database.SaveAssessment(vaultName, models.Assessment{
		Path:         note.Path,
		Checksum:     note.Checksum,
		Completeness: scores.Completeness,
		Accuracy:     scores.Accuracy,
		Freshness:    scores.Freshness,
		Consistency:  scores.Consistency,
		Validity:     scores.Validity,
		Overall:      scores.Overall,
		AssessedAt:   time.Now(),
	})
}

func archiveVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	archiver := archive.New(database, vault, cfg.Archive, applog.WithRole("archive"))
	candidates, err := archiver.Plan(c.Duration("older-than"))
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("Nothing to archive")
		return nil
	}

	var totalSize int64
	for _, cand := range candidates {
		fmt.Printf("  %s (%s)\n", cand.Note.Path, cand.Reason)
		totalSize += cand.Note.Size
	}
	fmt.Printf("%d note(s), %s\n", len(candidates), utils.FormatSize(totalSize))

	if c.Bool("dry-run") {
		return nil
	}
	if !c.Bool("yes") {
		ok, err := confirm("Archive these notes?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted")
			return nil
		}
	}

	result, err := archiver.Execute(c.Context, candidates)
	if err != nil {
		return err
	}
	fmt.Printf("Archived %d note(s), %d skipped, %d failed\n", result.Moved, result.Skipped, result.Failed)

	if c.Bool("upload") {
		uploader, err := archive.NewUploader(database, vault, cfg.Archive.Workers, applog.WithRole("upload"))
		if err != nil {
			return err
		}
		up, err := uploader.UploadArchived(c.Context)
		if err != nil {
			return fmt.Errorf("failed to upload archive: %v", err)
		}
		fmt.Printf("Uploaded %d note(s) (%s) in %s, %d skipped, %d failed\n",
			up.Uploaded, utils.FormatSize(up.Size), utils.FormatDuration(up.Duration), up.Skipped, up.Failed)
	}
	return nil
}

// confirm reads a single keypress; anything but y/Y declines.
func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N] ", prompt)
	char, _, err := keyboard.GetSingleKey()
	if err != nil {
		return false, err
	}
	fmt.Println()
	return char == 'y' || char == 'Y', nil
}

func showStatus(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.GetStats(vault.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Vault: %s\n", vault.Name)
	fmt.Printf("Root Path: %s\n", vault.RootPath)
	if vault.HasDestination() {
		fmt.Printf("Destination: %s/%s/%s\n", vault.Destination.Endpoint, vault.Destination.Bucket, vault.Destination.Folder)
	}
	fmt.Printf("Notes: %d (Size: %s)\n", stats.TotalNotes, utils.FormatSize(stats.TotalSize))
	fmt.Printf("Canvases: %d, Attachments: %d, Links: %d\n", stats.TotalCanvases, stats.Attachments, stats.TotalLinks)
	fmt.Printf("Archived: %d (Size: %s)\n", stats.ArchivedNotes, utils.FormatSize(stats.ArchivedSize))
	fmt.Printf("Issues: %d errors, %d warnings, %d info\n", stats.ErrorIssues, stats.WarningIssues, stats.InfoIssues)
	if stats.AssessedNotes > 0 {
		fmt.Printf("Quality: %.2f average over %d assessed\n", stats.AverageQuality, stats.AssessedNotes)
	}
	return nil
}

func showReport(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	stats, err := database.GetStats(vault.Name)
	if err != nil {
		return err
	}
	issues, err := database.GetIssues(vault.Name)
	if err != nil {
		return err
	}
	assessments, err := database.GetAssessments(vault.Name)
	if err != nil {
		return err
	}
	notes, err := database.GetNotes(vault.Name)
	if err != nil {
		return err
	}
	canvases, err := database.GetCanvases(vault.Name)
	if err != nil {
		return err
	}
	metrics, err := database.GetTemplateMetrics(vault.Name)
	if err != nil {
		return err
	}

	top := c.Int("top")
	now := time.Now()
	w := os.Stdout

	report.Overview(w, vault, stats)
	fmt.Fprintln(w)
	report.Issues(w, issues, top)
	fmt.Fprintln(w)
	report.Quality(w, assessments)
	fmt.Fprintln(w)
	report.Stale(w, notes, top, now)
	fmt.Fprintln(w)
	report.Canvases(w, canvases)
	fmt.Fprintln(w)
	report.Templates(w, metrics, now)
	return nil
}

func exportVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	notes, err := database.GetNotes(vault.Name)
	if err != nil {
		return err
	}
	issues, err := database.GetIssues(vault.Name)
	if err != nil {
		return err
	}
	canvases, err := database.GetCanvases(vault.Name)
	if err != nil {
		return err
	}
	stats, err := database.GetStats(vault.Name)
	if err != nil {
		return err
	}

	output := c.String("output")
	if err := export.Workbook(output, vault, notes, issues, canvases, stats); err != nil {
		return err
	}
	fmt.Printf("Exported %d notes, %d issues to %s\n", len(notes), len(issues), output)
	return nil
}

func watchVault(c *cli.Context) error {
	database, vault, err := openVault(c.String("vault"))
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	scan := scanner.New(database, vault, cfg.Scan, applog.WithRole("scanner"))
	runner := validate.NewRunner(database, vault, cfg.Validate, applog.WithRole("validate"))
	watchLog := applog.WithRole("watch")

	handler := func(ctx context.Context, paths []string) {
		for _, path := range paths {
			if err := scan.ScanFile(ctx, path); err != nil {
				watchLog.Warn().Str("path", path).Err(err).Msg("failed to re-index")
			}
		}
		summary, err := runner.Run(ctx, nil)
		if err != nil {
			watchLog.Warn().Err(err).Msg("validation failed")
			return
		}
		watchLog.Info().
			Int("changed", len(paths)).
			Int("errors", summary.Errors).
			Int("warnings", summary.Warnings).
			Msg("revalidated")
	}

	watcher := watch.New(vault, c.Duration("debounce"), handler, watchLog)
	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nWatch stopped")
	return nil
}
