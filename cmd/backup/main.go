package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordmatch/internal/config"
	"wordmatch/internal/database"
	"wordmatch/internal/service"
)

// command is one backup subcommand; run gets the parsed flag set's arguments.
type command struct {
	flags   *flag.FlagSet
	summary string
	run     func(backups *service.BackupService) error
}

func commands() map[string]*command {
	export := flag.NewFlagSet("export", flag.ExitOnError)
	output := export.String("output", "", "output file, - for stdout (default: backup_YYYYMMDD_HHMMSS.json)")

	imp := flag.NewFlagSet("import", flag.ExitOnError)
	input := imp.String("input", "", "input file, - for stdin (required)")
	clearData := imp.Bool("clear", false, "clear existing data before import (destructive)")
	yes := imp.Bool("yes", false, "do not prompt before clearing")

	return map[string]*command{
		"export": {
			flags:   export,
			summary: "Export the database to JSON",
			run: func(backups *service.BackupService) error {
				return runExport(backups, *output)
			},
		},
		"import": {
			flags:   imp,
			summary: "Import a JSON backup",
			run: func(backups *service.BackupService) error {
				if *input == "" {
					imp.Usage()
					return fmt.Errorf("-input is required")
				}
				return runImport(backups, *input, *clearData, *yes)
			},
		},
	}
}

func main() {
	cmds := commands()
	if len(os.Args) < 2 {
		printUsage(cmds)
		os.Exit(1)
	}
	cmd, ok := cmds[os.Args[1]]
	if !ok {
		printUsage(cmds)
		os.Exit(1)
	}
	_ = cmd.flags.Parse(os.Args[2:])

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := cmd.run(service.NewBackupService(db)); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Backup command failed")
		db.Close()
		os.Exit(1)
	}
}

func runExport(backups *service.BackupService, outputPath string) error {
	if outputPath == "-" {
		return backups.ExportToWriter(os.Stdout)
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	log.Info().Str("path", outputPath).Msg("Exporting database")
	if err := backups.Export(outputPath); err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return err
	}
	log.Info().Int64("bytes", info.Size()).Msg("Export complete")
	return nil
}

func runImport(backups *service.BackupService, inputPath string, clearData, skipPrompt bool) error {
	fromStdin := inputPath == "-"
	if fromStdin && clearData && !skipPrompt {
		// stdin carries the backup, so there is nobody to answer the prompt
		return fmt.Errorf("-clear with -input - needs -yes")
	}
	if !fromStdin {
		if _, err := os.Stat(inputPath); err != nil {
			return err
		}
	}

	if clearData {
		if !skipPrompt && !confirm("This deletes all existing data. Type 'yes' to confirm: ") {
			log.Info().Msg("Import cancelled")
			return nil
		}
		log.Info().Msg("Clearing existing data")
		if err := backups.Clear(); err != nil {
			return fmt.Errorf("clear database: %w", err)
		}
	}

	log.Info().Str("path", inputPath).Msg("Importing database")
	var err error
	if fromStdin {
		err = backups.ImportFromReader(os.Stdin)
	} else {
		err = backups.Import(inputPath)
	}
	if err != nil {
		return err
	}
	log.Info().Msg("Import complete")
	return nil
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == "yes"
}

func printUsage(cmds map[string]*command) {
	out := os.Stderr
	fmt.Fprintln(out, "WordMatch database backup tool")
	fmt.Fprintln(out)
	for _, name := range []string{"export", "import"} {
		cmd := cmds[name]
		fmt.Fprintf(out, "backup %s [options]    %s\n", name, cmd.summary)
		cmd.flags.SetOutput(out)
		cmd.flags.PrintDefaults()
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  DB_TYPE        sqlite, postgres or mysql (default: sqlite)")
	fmt.Fprintln(out, "  DB_PATH        SQLite database path (default: ./wordmatch.db)")
	fmt.Fprintln(out, "  DATABASE_URL   PostgreSQL or MySQL connection URL")
}
